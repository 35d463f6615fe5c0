package agstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by persistence engines when no snapshot exists for a key.
var ErrNotFound = errors.New("not found")

// ConversionError reports a value that cannot be represented in an attribute's
// declared type.  It is always recoverable and no mutation happens when returned.
type ConversionError struct {
	From  string // source type, e.g., "string" or "*url.URL"
	To    string // target attribute type or representation, e.g., "long"
	Value interface{}
	Err   error // underlying parse error, if any
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %s value %q to %s", e.From, fmt.Sprint(e.Value), e.To)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// InvalidReferenceError reports a topology operation on an element id that does not
// refer to a live element.
type InvalidReferenceError struct {
	Type ElementType
	ID   int
	Op   string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s: %s id %d does not refer to a live %s", e.Op, e.Type, e.ID, e.Type)
}

// IllegalStateError reports a handle used outside its lifecycle, e.g., a second
// commit or release.  It indicates a caller bug and must not be swallowed.
type IllegalStateError struct {
	Op     string
	Reason string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("illegal state in %s: %s", e.Op, e.Reason)
}

// InterruptedError reports a caller that stopped waiting for the writable handle.
type InterruptedError struct {
	Description string
	Err         error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("interrupted while waiting to write %q: %v", e.Description, e.Err)
}

func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// AttributeTypeError reports an attribute name registered again with a different type.
type AttributeTypeError struct {
	Type     ElementType
	Name     string
	Existing string
	Wanted   string
}

func (e *AttributeTypeError) Error() string {
	return fmt.Sprintf("%s attribute %q already exists with type %s, cannot register as %s",
		e.Type, e.Name, e.Existing, e.Wanted)
}

// UnknownAttributeError reports an attribute id or type tag that is not registered.
type UnknownAttributeError struct {
	Name string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute %s", e.Name)
}

// IsIllegalState returns true if err is or wraps an *IllegalStateError.
func IsIllegalState(err error) bool {
	var ise *IllegalStateError
	return errors.As(err, &ise)
}

// IsConversion returns true if err is or wraps a *ConversionError.
func IsConversion(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

// IsInvalidReference returns true if err is or wraps an *InvalidReferenceError.
func IsInvalidReference(err error) bool {
	var ire *InvalidReferenceError
	return errors.As(err, &ire)
}
