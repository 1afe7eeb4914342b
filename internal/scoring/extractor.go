package scoring

import (
	"regexp"
	"strconv"
)

// scorePattern matches sub-scores written as "8/10" or "7.5/10". The word
// boundary keeps "85/100" from being read as 85.
var scorePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)/10\b`)

// ExtractScores returns every N/10 value in report, in order of appearance.
func ExtractScores(report string) []float64 {
	matches := scorePattern.FindAllStringSubmatch(report, -1)
	scores := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		scores = append(scores, v)
	}
	return scores
}

// NarrativeScore reduces sub-scores to the mean ratio sum / (10 * n).
// No sub-scores yields 0.
func NarrativeScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / (10 * float64(len(scores)))
}
