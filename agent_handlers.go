// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

// OnStateChange registers a handler called for every agent state
// transition, in order.
func (a *Agent) OnStateChange(f func(State)) {
	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()
	a.onStateChangeHdlrs = append(a.onStateChangeHdlrs, f)
}

// OnCandidate registers a handler called for every gathered local candidate.
func (a *Agent) OnCandidate(f func(*Candidate)) {
	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()
	a.onCandidateHdlrs = append(a.onCandidateHdlrs, f)
}

// OnGatheringDone registers a handler called once local gathering finished.
func (a *Agent) OnGatheringDone(f func()) {
	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()
	a.onGatheringDoneHdlrs = append(a.onGatheringDoneHdlrs, f)
}

// OnReceive registers a handler called with every datagram received on
// the selected pair.
func (a *Agent) OnReceive(f func([]byte)) {
	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()
	a.onReceiveHdlrs = append(a.onReceiveHdlrs, f)
}

func (a *Agent) notifyStateChange(s State) {
	a.handlersMu.Lock()
	hdlrs := append([]func(State){}, a.onStateChangeHdlrs...)
	a.handlersMu.Unlock()

	a.notifier.enqueue(func() {
		for _, h := range hdlrs {
			h(s)
		}
	})
}

func (a *Agent) notifyCandidate(c *Candidate) {
	a.handlersMu.Lock()
	hdlrs := append([]func(*Candidate){}, a.onCandidateHdlrs...)
	a.handlersMu.Unlock()

	a.notifier.enqueue(func() {
		for _, h := range hdlrs {
			h(c)
		}
	})
}

func (a *Agent) notifyGatheringDone() {
	a.handlersMu.Lock()
	hdlrs := append([]func(){}, a.onGatheringDoneHdlrs...)
	a.handlersMu.Unlock()

	a.notifier.enqueue(func() {
		for _, h := range hdlrs {
			h()
		}
	})
}

func (a *Agent) notifyReceive(b []byte) {
	a.handlersMu.Lock()
	hdlrs := append([]func([]byte){}, a.onReceiveHdlrs...)
	a.handlersMu.Unlock()
	if len(hdlrs) == 0 {
		return
	}

	a.notifier.enqueue(func() {
		for _, h := range hdlrs {
			h(b)
		}
	})
}
