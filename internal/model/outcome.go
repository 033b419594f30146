package model

// DispatchStatus is the per-recipient result reported in a run summary
type DispatchStatus string

const (
	DispatchSent    DispatchStatus = "sent"
	DispatchFailed  DispatchStatus = "failed"
	DispatchSkipped DispatchStatus = "skipped" // dedup hit
	DispatchIgnored DispatchStatus = "ignored" // missing phone or channel credentials
)

// DispatchOutcome is the ephemeral result of one recipient in one run
type DispatchOutcome struct {
	RecipientLabel string         `json:"recipientLabel"`
	AutomationType AutomationType `json:"automationType,omitempty"`
	Status         DispatchStatus `json:"status"`
	Error          string         `json:"error,omitempty"`
	Retryable      bool           `json:"retryable,omitempty"` // provider may accept a later attempt

	CompanyID string `json:"-"`
	UnitID    string `json:"-"`
}

// RunSummary aggregates the outcomes of one invocation
type RunSummary struct {
	Message string            `json:"message"`
	Sent    int               `json:"sent"`
	Skipped int               `json:"skipped"`
	Failed  int               `json:"failed"`
	Ignored int               `json:"ignored"`
	Results []DispatchOutcome `json:"results"`
}

// NewRunSummary returns an empty summary with a non-nil result list
func NewRunSummary(message string) *RunSummary {
	return &RunSummary{Message: message, Results: []DispatchOutcome{}}
}

// Add appends an outcome and bumps the matching counter
func (s *RunSummary) Add(o DispatchOutcome) {
	switch o.Status {
	case DispatchSent:
		s.Sent++
	case DispatchFailed:
		s.Failed++
	case DispatchSkipped:
		s.Skipped++
	case DispatchIgnored:
		s.Ignored++
	}
	s.Results = append(s.Results, o)
}

// Merge appends every outcome of other
func (s *RunSummary) Merge(other *RunSummary) {
	if other == nil {
		return
	}
	for _, o := range other.Results {
		s.Add(o)
	}
}
