package scoring

import (
	"strings"
	"testing"
)

func TestCombineSubmission(t *testing.T) {
	got := CombineSubmission("  Experienced in SQL and Power BI\n", "I love BI dashboards ")
	want := "Experienced in SQL and Power BI\n\nOpen Question Answer:\nI love BI dashboards"
	if got != want {
		t.Fatalf("CombineSubmission() = %q, want %q", got, want)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("my resume", "Build Power BI dashboards")

	for _, want := range []string{
		"my resume",
		"Build Power BI dashboards",
		"N/10",
		"✅", "❌", "⚠️",
		"Suggestions to improve your application:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Errorf("prompt has unreplaced placeholders:\n%s", prompt)
	}
	if strings.Index(prompt, "Build Power BI dashboards") > strings.Index(prompt, "my resume") {
		t.Errorf("job description should precede the application")
	}
}
