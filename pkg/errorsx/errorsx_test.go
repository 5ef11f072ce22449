package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonTranscribe)
	if Reason(err) != ReasonTranscribe {
		t.Fatalf("expected reason %s, got %s", ReasonTranscribe, Reason(err))
	}
	if !HasReason(err, ReasonTranscribe) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonConvert)
	second := Wrap(first, ReasonTranscribe)
	if Reason(second) != ReasonConvert {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ReasonConvert) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
	if Reason(nil) != ReasonUnknown {
		t.Fatalf("nil error must report unknown reason")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
