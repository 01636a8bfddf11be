// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package stun

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is matched (via errors.Is) by every error returned while
	// decoding a truncated or otherwise malformed STUN message.
	ErrMalformed = errors.New("malformed STUN message")

	// ErrAttributeNotFound means that there is no such attribute.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrAttributeSizeInvalid means that decoded attribute size is invalid.
	ErrAttributeSizeInvalid = errors.New("attribute size is invalid")

	// ErrAttributeSizeOverflow means that decoded attribute size is too big.
	ErrAttributeSizeOverflow = errors.New("attribute size is too big")

	// ErrUnexpectedHeaderEOF means that there were not enough bytes in
	// m.Raw to read header.
	ErrUnexpectedHeaderEOF = errors.New("unexpected EOF: not enough bytes to read header")
)

// DecodeErr records an error and place when it is occurred.
type DecodeErr struct {
	Place   DecodeErrPlace
	Message string
}

// IsPlaceParent reports if error place parent is p.
func (e *DecodeErr) IsPlaceParent(p string) bool {
	return e.Place.Parent == p
}

// IsPlaceChildren reports if error place children is c.
func (e *DecodeErr) IsPlaceChildren(c string) bool {
	return e.Place.Children == c
}

// IsPlace reports if error place is p.
func (e *DecodeErr) IsPlace(p DecodeErrPlace) bool {
	return e.Place == p
}

// Is makes every *DecodeErr match ErrMalformed.
func (e *DecodeErr) Is(target error) bool {
	return target == ErrMalformed //nolint:errorlint
}

// DecodeErrPlace records a place where error is occurred.
type DecodeErrPlace struct {
	Parent   string
	Children string
}

func (p DecodeErrPlace) String() string {
	return p.Parent + "/" + p.Children
}

func (e *DecodeErr) Error() string {
	return "BadFormat for " + e.Place.String() + ": " + e.Message
}

func newDecodeErr(parent, children, message string) *DecodeErr {
	return &DecodeErr{
		Place:   DecodeErrPlace{Parent: parent, Children: children},
		Message: message,
	}
}

func newAttrDecodeErr(children, message string) *DecodeErr {
	return newDecodeErr("attribute", children, message)
}

// AttrLengthErr means that length for attribute is invalid.
type AttrLengthErr struct {
	Attr     AttrType
	Got      int
	Expected int
}

func (e AttrLengthErr) Error() string {
	return fmt.Sprintf("incorrect length of %s attribute: got %d, expected %d",
		e.Attr,
		e.Got,
		e.Expected,
	)
}

// Unwrap lets AttrLengthErr match ErrAttributeSizeInvalid.
func (e AttrLengthErr) Unwrap() error {
	return ErrAttributeSizeInvalid
}

// AttrOverflowErr occurs when len(v) > Max.
type AttrOverflowErr struct {
	Type AttrType
	Max  int
	Got  int
}

func (e AttrOverflowErr) Error() string {
	return fmt.Sprintf("incorrect length of %s attribute: %d exceeds maximum %d",
		e.Type, e.Got, e.Max,
	)
}

// Unwrap lets AttrOverflowErr match ErrAttributeSizeOverflow.
func (e AttrOverflowErr) Unwrap() error {
	return ErrAttributeSizeOverflow
}

// IsAttrSizeInvalid returns true if error means that attribute size is invalid.
func IsAttrSizeInvalid(err error) bool {
	return errors.Is(err, ErrAttributeSizeInvalid)
}

// IsAttrSizeOverflow returns true if error means that attribute size is too big.
func IsAttrSizeOverflow(err error) bool {
	return errors.Is(err, ErrAttributeSizeOverflow)
}

// CheckSize returns *AttrLengthErr if got is not equal to expected.
func CheckSize(a AttrType, got, expected int) error {
	if got == expected {
		return nil
	}

	return &AttrLengthErr{
		Got:      got,
		Expected: expected,
		Attr:     a,
	}
}

// CheckOverflow returns *AttrOverflowErr if got is bigger that max.
func CheckOverflow(t AttrType, got, max int) error { //nolint:predeclared
	if got <= max {
		return nil
	}

	return &AttrOverflowErr{
		Type: t,
		Got:  got,
		Max:  max,
	}
}
