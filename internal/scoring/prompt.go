package scoring

import (
	_ "embed"
	"strings"
)

//go:embed prompt.md
var promptTemplate string

// AnswerDelimiter separates the resume text from the open question answer.
const AnswerDelimiter = "\n\nOpen Question Answer:\n"

// CombineSubmission joins the resume text and the answer into one submission.
func CombineSubmission(resumeText, answer string) string {
	return strings.TrimSpace(resumeText) + AnswerDelimiter + strings.TrimSpace(answer)
}

// BuildPrompt renders the evaluation prompt for a submission.
func BuildPrompt(submission, jobDescription string) string {
	r := strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", strings.TrimSpace(jobDescription),
		"{{SUBMISSION}}", strings.TrimSpace(submission),
	)
	return r.Replace(promptTemplate)
}
