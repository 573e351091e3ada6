package tunnel

import (
	"errors"
	"testing"
)

func TestTransportOutcomePassesThroughOtherErrors(t *testing.T) {
	addr := fakeAddr("127.0.0.1:9999")
	original := errors.New("boom")

	if err := transportOutcome(original, addr); err != original {
		t.Errorf("expected an unrecognized error to pass through unchanged, got %v", err)
	}
}

type fakeAddr string

func (f fakeAddr) Network() string { return "udp" }
func (f fakeAddr) String() string  { return string(f) }
