package domain

import "time"

// RunMode distinguishes the initial multi-page crawl from recurring polling.
type RunMode string

const (
	ModeBackfill RunMode = "backfill"
	ModePoll     RunMode = "poll"
)

// Stage is a step of the per-headline state machine.
type Stage string

const (
	StageFetched     Stage = "fetched"
	StageClassified  Stage = "classified"
	StageParsing     Stage = "parsing"
	StageSummarizing Stage = "summarizing"
	StagePersisting  Stage = "persisting"
)

// Outcome is the terminal state of a headline within a run.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomePersisted Outcome = "persisted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDropped   Outcome = "dropped"
)

// DropReason explains why a headline ended in the dropped state.
type DropReason string

const (
	DropClassifierFault DropReason = "classifier_fault"
	DropParseFailure    DropReason = "parse_failure"
	DropSummaryFailure  DropReason = "summary_failure"
	DropStoreFailure    DropReason = "store_failure"
)

// HeadlineResult records how one headline left the pipeline.
type HeadlineResult struct {
	Headline  Headline
	Relevance Relevance
	Outcome   Outcome
	Reason    DropReason
	Err       error
}

// RunReport summarises one pipeline run.
type RunReport struct {
	RunID      string
	Mode       RunMode
	Term       string
	StartedAt  time.Time
	FinishedAt time.Time
	PageErrors int
	Results    []HeadlineResult
	Persisted  []Article
}

// Count returns how many headlines ended with the given outcome.
func (r RunReport) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}
