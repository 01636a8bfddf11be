// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"sync"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
	"github.com/stretchr/testify/assert"
)

func TestNotifier_Order(t *testing.T) {
	defer test.CheckRoutines(t)()

	n := newNotifier()
	defer n.close()

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	wg.Add(100)
	for i := 0; i < 100; i++ {
		i := i
		n.enqueue(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestNotifier_Reentrant(t *testing.T) {
	defer test.CheckRoutines(t)()

	n := newNotifier()
	defer n.close()

	done := make(chan struct{})
	n.enqueue(func() {
		n.enqueue(func() {
			close(done)
		})
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		assert.Fail(t, "nested callback did not run")
	}
}

func TestNotifier_Close(t *testing.T) {
	defer test.CheckRoutines(t)()

	n := newNotifier()

	release := make(chan struct{})
	started := make(chan struct{})
	n.enqueue(func() {
		close(started)
		<-release
	})
	<-started

	var called bool
	n.enqueue(func() {
		called = true
	})
	n.close()
	close(release)

	n.enqueue(func() {
		called = true
	})
	time.Sleep(20 * time.Millisecond)
	assert.False(t, called)
}
