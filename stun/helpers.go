// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package stun

// Interfaces that are implemented by message attributes, shorthands for them,
// or helpers for message fields as type or transaction id.
type (
	// Setter sets *Message attribute.
	Setter interface {
		AddTo(m *Message) error
	}
	// Getter parses attribute from *Message.
	Getter interface {
		GetFrom(m *Message) error
	}
	// Checker checks *Message attribute.
	Checker interface {
		Check(m *Message) error
	}
)

// Build resets message and applies setters to it in batch, returning on
// first error. To prevent allocations, pass pointers to values.
//
// Example:
//
//	var (
//		t        = BindingRequest
//		username = NewUsername("username")
//		i        = NewShortTermIntegrity("password")
//	)
//	if err := m.Build(&t, &username, i, Fingerprint); err != nil {
//		log.Fatal(err)
//	}
func (m *Message) Build(setters ...Setter) error {
	m.Reset()
	m.WriteHeader()
	for _, s := range setters {
		if err := s.AddTo(m); err != nil {
			return err
		}
	}

	return nil
}

// Check applies checkers to message in batch, returning on first error.
func (m *Message) Check(checkers ...Checker) error {
	for _, c := range checkers {
		if err := c.Check(m); err != nil {
			return err
		}
	}

	return nil
}

// Parse applies getters to message in batch, returning on first error.
func (m *Message) Parse(getters ...Getter) error {
	for _, c := range getters {
		if err := c.GetFrom(m); err != nil {
			return err
		}
	}

	return nil
}

// CheckPresent runs each checker only when its attribute is present in m.
// Authenticated messages must use Check for MESSAGE-INTEGRITY instead.
func (m *Message) CheckPresent(checkers map[AttrType]Checker) error {
	for _, t := range []AttrType{AttrMessageIntegrity, AttrFingerprint} {
		c, ok := checkers[t]
		if !ok || !m.Contains(t) {
			continue
		}
		if err := c.Check(m); err != nil {
			return err
		}
	}

	return nil
}

// MustBuild wraps Build call and panics on error.
func MustBuild(setters ...Setter) *Message {
	m, err := Build(setters...)
	if err != nil {
		panic(err) //nolint
	}

	return m
}

// Build wraps Message.Build method.
func Build(setters ...Setter) (*Message, error) {
	m := new(Message)
	if err := m.Build(setters...); err != nil {
		return nil, err
	}

	return m, nil
}

// EncodeBindingRequest returns the wire form of a binding request with the
// given transaction ID and attributes.
func EncodeBindingRequest(id [TransactionIDSize]byte, setters ...Setter) ([]byte, error) {
	all := make([]Setter, 0, len(setters)+2)
	all = append(all, BindingRequest, NewTransactionIDSetter(id))
	all = append(all, setters...)
	m, err := Build(all...)
	if err != nil {
		return nil, err
	}

	return m.Raw, nil
}

type transactionIDSetter struct{}

func (transactionIDSetter) AddTo(m *Message) error {
	return m.NewTransactionID()
}

// TransactionID is Setter for m.TransactionID.
var TransactionID Setter = transactionIDSetter{} //nolint:gochecknoglobals

// NewTransactionIDSetter returns new Setter that sets message transaction id
// to provided value.
func NewTransactionIDSetter(value [TransactionIDSize]byte) Setter {
	return transactionIDValueSetter(value)
}

type transactionIDValueSetter [TransactionIDSize]byte

func (t transactionIDValueSetter) AddTo(m *Message) error {
	m.TransactionID = t
	m.WriteTransactionID()

	return nil
}
