package summarizer

import "context"

// Summarizer produces a markdown summary for one transcript. Used by
// the batch-ingest path; live sessions go through the local summarizer
// worker instead.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}
