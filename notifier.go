// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import "sync"

// notifier runs observer callbacks one at a time, in the order they were
// queued, on its own goroutine. Callbacks may call back into the agent.
type notifier struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

func newNotifier() *notifier {
	n := &notifier{wake: make(chan struct{}, 1)}
	go n.loop()

	return n
}

func (n *notifier) enqueue(f func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.queue = append(n.queue, f)
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) loop() {
	for {
		n.mu.Lock()
		if n.closed {
			n.mu.Unlock()

			return
		}
		if len(n.queue) == 0 {
			n.mu.Unlock()
			<-n.wake

			continue
		}
		f := n.queue[0]
		n.queue[0] = nil
		n.queue = n.queue[1:]
		n.mu.Unlock()

		f()
	}
}

// close drops pending callbacks. A callback already running completes.
func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.queue = nil
	select {
	case n.wake <- struct{}{}:
	default:
	}
}
