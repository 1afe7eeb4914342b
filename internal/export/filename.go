package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitize(s string) string {
	s = unsafeFilename.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "unknown"
	}
	return s
}

// ReportFilename names the downloadable report of one submission.
func ReportFilename(role, candidateID string, at time.Time) string {
	return fmt.Sprintf("report_%s_%s_%s.txt", sanitize(role), sanitize(candidateID), at.UTC().Format("20060102T150405Z"))
}

// LeaderboardFilename names a leaderboard download with the given extension.
func LeaderboardFilename(role, ext string) string {
	return fmt.Sprintf("top_candidates_%s.%s", sanitize(role), strings.TrimPrefix(ext, "."))
}
