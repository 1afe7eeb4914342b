package scoring

import "context"

// ReportGenerator asks a language model for a narrative evaluation of a
// submission against a job description.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, submission, jobDescription string) (string, error)
	Name() string
}
