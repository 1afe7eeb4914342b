package export

import (
	"fmt"
	"io"
	"time"

	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/leaderboard"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	candidatesSheet = "Top Candidates"
)

var cellBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// WriteLeaderboardXLSX writes a workbook with a summary of the job and the
// ranked standings.
func WriteLeaderboardXLSX(w io.Writer, job config.Job, standings []leaderboard.Standing, total int, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(candidatesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := createSummarySheet(f, job, len(standings), total, generatedAt); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createCandidatesSheet(f, standings); err != nil {
		return fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func createSummarySheet(f *excelize.File, job config.Job, shown, total int, generatedAt time.Time) error {
	f.SetColWidth(summarySheet, "A", "A", 20)
	f.SetColWidth(summarySheet, "B", "B", 50)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	f.SetCellValue(summarySheet, "A1", "Leaderboard")
	f.MergeCell(summarySheet, "A1", "B1")
	f.SetCellStyle(summarySheet, "A1", "B1", titleStyle)

	rows := [][2]any{
		{"Role", job.Role},
		{"Position", job.Title},
		{"Company", job.Company},
		{"Location", job.Location},
		{"Candidates", total},
		{"Shown", shown},
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
	}
	for i, r := range rows {
		row := i + 3
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), r[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), r[1])
		f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	}
	return nil
}

func createCandidatesSheet(f *excelize.File, standings []leaderboard.Standing) error {
	f.SetColWidth(candidatesSheet, "A", "A", 8)
	f.SetColWidth(candidatesSheet, "B", "B", 30)
	f.SetColWidth(candidatesSheet, "C", "E", 16)
	f.SetColWidth(candidatesSheet, "F", "F", 24)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	if err != nil {
		return err
	}

	// Row colour by final score band.
	bands := []struct {
		min   float64
		color string
	}{
		{0.75, "C6EFCE"},
		{0.5, "FFEB9C"},
		{0.25, "FFC7CE"},
		{0, "FF9999"},
	}
	bandStyles := make([]int, len(bands))
	for i, b := range bands {
		style, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{b.color}, Pattern: 1},
			Border: cellBorder,
		})
		if err != nil {
			return err
		}
		bandStyles[i] = style
	}

	for col, header := range leaderboardHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(candidatesSheet, cell, header)
		f.SetCellStyle(candidatesSheet, cell, cell, headerStyle)
	}

	for i, s := range standings {
		row := i + 2
		values := []any{s.Rank, s.CandidateID, s.FinalScore, s.SimilarityScore, s.NarrativeScore, s.Timestamp.UTC().Format(time.RFC3339)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(candidatesSheet, cell, v)
		}

		style := bandStyles[len(bandStyles)-1]
		for j, b := range bands {
			if s.FinalScore >= b.min {
				style = bandStyles[j]
				break
			}
		}
		f.SetCellStyle(candidatesSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), style)
	}

	if len(standings) > 0 {
		f.SetPanes(candidatesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}
	return nil
}
