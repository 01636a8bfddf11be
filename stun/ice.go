// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package stun

// PriorityAttr represents PRIORITY attribute.
//
// RFC 8445 Section 7.1.1.
type PriorityAttr uint32

const prioritySize = 4 // 32 bit

// AddTo adds PRIORITY attribute to message.
func (p PriorityAttr) AddTo(m *Message) error {
	v := make([]byte, prioritySize)
	bin.PutUint32(v, uint32(p))
	m.Add(AttrPriority, v)

	return nil
}

// GetFrom decodes PRIORITY attribute from message.
func (p *PriorityAttr) GetFrom(m *Message) error {
	v, err := m.Get(AttrPriority)
	if err != nil {
		return err
	}
	if err = CheckSize(AttrPriority, len(v), prioritySize); err != nil {
		return err
	}
	*p = PriorityAttr(bin.Uint32(v))

	return nil
}

// tieBreaker is common helper for ICE-{CONTROLLED,CONTROLLING}
// and represents the so-called tie-breaker number.
type tieBreaker uint64

const tieBreakerSize = 8 // 64 bit

// AddToAs adds tie-breaker value to m as t attribute.
func (a tieBreaker) AddToAs(m *Message, t AttrType) error {
	v := make([]byte, tieBreakerSize)
	bin.PutUint64(v, uint64(a))
	m.Add(t, v)

	return nil
}

// GetFromAs decodes tie-breaker value in message getting it as for t type.
func (a *tieBreaker) GetFromAs(m *Message, t AttrType) error {
	v, err := m.Get(t)
	if err != nil {
		return err
	}
	if err = CheckSize(t, len(v), tieBreakerSize); err != nil {
		return err
	}
	*a = tieBreaker(bin.Uint64(v))

	return nil
}

// AttrControlled represents ICE-CONTROLLED attribute.
type AttrControlled uint64

// AddTo adds ICE-CONTROLLED to message.
func (c AttrControlled) AddTo(m *Message) error {
	return tieBreaker(c).AddToAs(m, AttrICEControlled)
}

// GetFrom decodes ICE-CONTROLLED from message.
func (c *AttrControlled) GetFrom(m *Message) error {
	return (*tieBreaker)(c).GetFromAs(m, AttrICEControlled)
}

// AttrControlling represents ICE-CONTROLLING attribute.
type AttrControlling uint64

// AddTo adds ICE-CONTROLLING to message.
func (c AttrControlling) AddTo(m *Message) error {
	return tieBreaker(c).AddToAs(m, AttrICEControlling)
}

// GetFrom decodes ICE-CONTROLLING from message.
func (c *AttrControlling) GetFrom(m *Message) error {
	return (*tieBreaker)(c).GetFromAs(m, AttrICEControlling)
}

// UseCandidateAttr represents USE-CANDIDATE attribute.
type UseCandidateAttr struct{}

// AddTo adds USE-CANDIDATE attribute to message.
func (UseCandidateAttr) AddTo(m *Message) error {
	m.Add(AttrUseCandidate, nil)

	return nil
}

// IsSet returns true if USE-CANDIDATE attribute is set.
func (UseCandidateAttr) IsSet(m *Message) bool {
	_, err := m.Get(AttrUseCandidate)

	return err == nil
}

// UseCandidate is shorthand for UseCandidateAttr.
func UseCandidate() UseCandidateAttr {
	return UseCandidateAttr{}
}
