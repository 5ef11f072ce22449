package summary

import "context"

// Summarizer condenses a finished call transcript into a short summary.
// It is invoked once per completed session by the calling layer, never by
// the session core.
type Summarizer interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Summarize turns a transcript into a summary.
	Summarize(ctx context.Context, transcript string) (string, error)
}
