package refresh

import "time"

// Source labels what started a run
type Source string

const (
	SourceScheduled Source = "scheduled"
	SourceOnDemand  Source = "on_demand"
	SourceStartup   Source = "startup"
	SourceManual    Source = "manual"
)

// Run outcomes
const (
	OutcomeCommitted = "committed"
	OutcomeEmpty     = "empty" // universe was empty, nothing to do
	OutcomeCanceled  = "canceled"
	OutcomeFailed    = "failed"
)

// RunReport summarizes one refresh run
type RunReport struct {
	ID         string        `json:"id"`
	Source     Source        `json:"source"`
	Limit      int           `json:"limit"`
	ConfigHash string        `json:"config_hash,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`

	Universe int           `json:"universe"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Failed   map[Stage]int `json:"failed"`
	Outcome  string        `json:"outcome"`
	Error    string        `json:"error,omitempty"`

	Errors []InstrumentError `json:"errors,omitempty"`
}

// Succeeded returns the number of reconciled instruments
func (r *RunReport) Succeeded() int {
	return r.Created + r.Updated
}

// FailedTotal returns the number of skipped instruments
func (r *RunReport) FailedTotal() int {
	total := 0
	for _, n := range r.Failed {
		total += n
	}
	return total
}

func (r *RunReport) addFailure(e *InstrumentError) {
	r.Failed[e.Stage]++
	if len(r.Errors) < maxReportedErrors {
		entry := *e
		if entry.Err != nil {
			entry.Message = entry.Err.Error()
		}
		r.Errors = append(r.Errors, entry)
	}
}

const maxReportedErrors = 50
