package domain

import "time"

// Status is the pass/fail state of an outcome or a run.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Stage names a step of the verification pipeline.
type Stage string

const (
	StageConfig      Stage = "config"
	StageConsistency Stage = "consistency"
	StageAgreement   Stage = "agreement"
	StageAttribution Stage = "attribution"
	StageCoverage    Stage = "coverage"
	StageManifest    Stage = "manifest"
)

// Outcome is the result of one check against one scope.
type Outcome struct {
	Stage   Stage    `json:"stage"`
	Scope   string   `json:"scope"`
	Status  Status   `json:"status"`
	Reason  string   `json:"reason,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Passed reports whether the outcome passed.
func (o Outcome) Passed() bool { return o.Status == StatusPass }

// Pass builds a passing outcome.
func Pass(stage Stage, scope string, details ...string) Outcome {
	return Outcome{Stage: stage, Scope: scope, Status: StatusPass, Details: details}
}

// Fail builds a failing outcome.
func Fail(stage Stage, scope, reason string, details ...string) Outcome {
	return Outcome{Stage: stage, Scope: scope, Status: StatusFail, Reason: reason, Details: details}
}

// Report aggregates the outcomes of one run.
type Report struct {
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
	CommitHash  string    `json:"commit_hash,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	Root        string    `json:"root"`
	Status      Status    `json:"status"`
	Attribution string    `json:"attribution,omitempty"`
	Offenders   []string  `json:"offenders,omitempty"`
	Outcomes    []Outcome `json:"outcomes"`
	// FailureCode is the code of the error that ended a failed run.
	FailureCode string    `json:"failure_code,omitempty"`
}

// Add appends an outcome and folds it into the run status.
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if !o.Passed() {
		r.Status = StatusFail
	}
}

// Failed returns the first failing outcome, if any.
func (r *Report) Failed() (Outcome, bool) {
	for _, o := range r.Outcomes {
		if !o.Passed() {
			return o, true
		}
	}
	return Outcome{}, false
}

// RunEntry is one persisted verification run.
type RunEntry struct {
	RunID       string `json:"run_id"`
	Timestamp   string `json:"timestamp"`
	CommitHash  string `json:"commit_hash,omitempty"`
	Branch      string `json:"branch,omitempty"`
	Status      Status `json:"status"`
	FailedStage Stage  `json:"failed_stage,omitempty"`
	FailureCode string `json:"failure_code,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// EntryFor summarizes a report as a history entry.
func EntryFor(r *Report) RunEntry {
	e := RunEntry{
		RunID:      r.RunID,
		Timestamp:  r.Timestamp.Format(time.RFC3339),
		CommitHash: r.CommitHash,
		Branch:     r.Branch,
		Status:     r.Status,
	}
	if o, ok := r.Failed(); ok {
		e.FailedStage = o.Stage
		e.FailureCode = r.FailureCode
		e.Reason = o.Reason
	}
	return e
}
