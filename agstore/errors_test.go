package agstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConversionErrorMessage(t *testing.T) {
	err := &ConversionError{From: "string", To: "long", Value: "not a long"}
	msg := err.Error()
	for _, part := range []string{"string", "long", "not a long"} {
		if !strings.Contains(msg, part) {
			t.Errorf("conversion error %q does not mention %q\n", msg, part)
		}
	}
	wrapped := fmt.Errorf("setting value: %w", err)
	if !IsConversion(wrapped) {
		t.Errorf("expected wrapped conversion error to be detected\n")
	}
}

func TestInterruptedErrorUnwraps(t *testing.T) {
	err := &InterruptedError{Description: "add vertices", Err: context.Canceled}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected interrupted error to unwrap to context.Canceled\n")
	}
	if IsIllegalState(err) {
		t.Errorf("interrupted error is not an illegal state error\n")
	}
}

func TestElementTypes(t *testing.T) {
	for _, et := range ElementTypes {
		parsed, err := ParseElementType(et.String())
		if err != nil || parsed != et {
			t.Errorf("ParseElementType(%q) = %v, %v\n", et.String(), parsed, err)
		}
	}
	if Edge.Stored() || Link.Stored() {
		t.Errorf("edges and links are derived and must not own storage\n")
	}
	if !Vertex.Stored() || !Transaction.Stored() || !GraphElement.Stored() {
		t.Errorf("vertex, transaction and graph types own storage\n")
	}
}
