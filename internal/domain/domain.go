package domain

import (
	"strings"
	"time"
)

// Document is the text pulled out of one uploaded file.
type Document struct {
	FileName  string
	Text      string
	PageCount int
	Links     []string
}

// HasText reports whether there is anything worth summarizing. Text made of
// whitespace only, such as the page separators of a scanned file, does not count.
func (d *Document) HasText() bool {
	return d != nil && strings.TrimSpace(d.Text) != ""
}

// SummaryResult holds the outcome of one summarization attempt: either
// Summary or Err is set, never both.
type SummaryResult struct {
	Summary     string
	Err         *Error
	GeneratedAt time.Time
}

func Succeeded(summary string, at time.Time) SummaryResult {
	return SummaryResult{Summary: summary, GeneratedAt: at}
}

func Failed(err *Error, at time.Time) SummaryResult {
	return SummaryResult{Err: err, GeneratedAt: at}
}

func (r SummaryResult) OK() bool {
	return r.Err == nil
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Attempt is the journal record of a summarization. It never carries the
// credential, the document text or the summary itself.
type Attempt struct {
	SessionID string
	FileName  string
	PageCount int
	TextChars int
	Outcome   Outcome
	ErrorKind ErrorKind
	Duration  time.Duration
	CreatedAt time.Time
}
