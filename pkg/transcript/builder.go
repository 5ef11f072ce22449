// Package transcript assembles per-speaker text segments into a labeled,
// ordered call transcript.
package transcript

import (
	"strings"

	"github.com/mwidjaja/callscribe/pkg/redact"
)

// FallbackName returns the deterministic label used when a speaker has no
// display name.
func FallbackName(speakerID string) string {
	return "Speaker " + speakerID
}

// Builder renders a combined transcript. Speakers appear in the order given,
// each segment under its speaker label, blocks separated by blank lines.
type Builder struct {
	blocks []string
}

// AddSpeaker appends all segments for one speaker under its display name.
// Empty segments are skipped; an empty name falls back to FallbackName.
func (b *Builder) AddSpeaker(speakerID, name string, segments []string) {
	label := strings.TrimSpace(name)
	if label == "" {
		label = FallbackName(speakerID)
	}
	for _, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		b.blocks = append(b.blocks, label+":\n"+redact.Text(seg)+"\n")
	}
}

// String renders the transcript. Calling it twice without intervening
// mutation yields identical output.
func (b *Builder) String() string {
	return strings.Join(b.blocks, "\n")
}
