// Package validate runs the pre-EXPLAIN validation pipeline: table and
// column existence, join sanity, then driver-checked syntax.
package validate

import "github.com/querylens/querylens/internal/report"

// Failure is the error value every validation stage returns on abort. It
// carries the structured failure report the caller hands to the user in
// place of a performance report.
type Failure struct {
	Report *report.ValidationFailureReport
}

func (f *Failure) Error() string {
	if f.Report == nil {
		return "validation failed"
	}
	return f.Report.FailureStage + ": " + f.Report.DetailedError
}

// NewFailure builds a Failure with the given stage and status.
func NewFailure(stage, status, detail string) *Failure {
	return &Failure{Report: &report.ValidationFailureReport{
		Status:        status,
		FailureStage:  stage,
		DetailedError: detail,
	}}
}
