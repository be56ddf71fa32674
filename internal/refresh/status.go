package refresh

import "time"

// Phase represents the current phase of background refresh
type Phase string

const (
	// PhasePending means no pass has run yet
	PhasePending Phase = "Pending"

	// PhaseRunning means a pass is in progress
	PhaseRunning Phase = "Running"

	// PhaseComplete means the last pass completed
	PhaseComplete Phase = "Complete"

	// PhaseFailed means the last pass failed after all retries
	PhaseFailed Phase = "Failed"
)

// Status represents the state of background refresh
type Status struct {
	// Phase represents the current refresh phase
	Phase Phase `json:"phase" yaml:"phase"`

	// Message provides additional information about the status
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// LastAttempt is the start time of the latest pass
	LastAttempt *time.Time `json:"lastAttempt,omitempty" yaml:"lastAttempt,omitempty"`

	// AttemptCount is the number of attempts the latest pass needed
	AttemptCount int `json:"attemptCount,omitempty" yaml:"attemptCount,omitempty"`

	// LastRefreshTime is the end time of the last completed pass
	LastRefreshTime *time.Time `json:"lastRefreshTime,omitempty" yaml:"lastRefreshTime,omitempty"`

	// Marketplaces is the number of marketplaces in the last completed pass
	Marketplaces int `json:"marketplaces" yaml:"marketplaces"`

	// Failed is how many of them could not be fetched
	Failed int `json:"failed" yaml:"failed"`
}
