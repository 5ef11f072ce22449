package transcript

import "testing"

func TestBuilderOrdersAndLabels(t *testing.T) {
	var b Builder
	b.AddSpeaker("42", "alice", []string{"hello", "world"})
	b.AddSpeaker("77", "", []string{"hi"})

	want := "alice:\nhello\n\nalice:\nworld\n\nSpeaker 77:\nhi\n"
	if got := b.String(); got != want {
		t.Fatalf("unexpected transcript:\n%q\nwant:\n%q", got, want)
	}
}

func TestBuilderSkipsEmptySegments(t *testing.T) {
	var b Builder
	b.AddSpeaker("1", "bob", []string{"", "  ", "ok"})
	want := "bob:\nok\n"
	if got := b.String(); got != want {
		t.Fatalf("unexpected transcript: %q", got)
	}
}

func TestBuilderStableOutput(t *testing.T) {
	var b Builder
	b.AddSpeaker("9", "carol", []string{"one", "two"})
	first := b.String()
	second := b.String()
	if first != second {
		t.Fatalf("output not stable: %q vs %q", first, second)
	}
}
