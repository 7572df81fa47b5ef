// package formatter renders match records, failures and playlist runs as CSV, Markdown and plain text reports
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/tasks"
)

// Report is the content of a match store report.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Statistics  *models.MatchStatistics
	Matches     []*models.MatchRecord
	Failures    []*models.FailedMatchRecord
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func confidenceString(c float64) string {
	return strconv.FormatFloat(c, 'f', 4, 64)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// MatchesToCSV converts match records to CSV with one row per record.
//
// Artist lists are joined with "; " so the column stays a single field.
func MatchesToCSV(records []*models.MatchRecord) ([]byte, error) {
	headers := []string{
		"ID", "Source Platform", "Source ID", "Source Title", "Source Artists",
		"Target Platform", "Target ID", "Target Title", "Target Artists",
		"Confidence", "Verified", "Updated",
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.SourcePlatform,
			r.SourcePlatformID,
			r.SourceTitle,
			strings.Join(r.SourceArtists, "; "),
			r.TargetPlatform,
			r.TargetPlatformID,
			r.TargetTitle,
			strings.Join(r.TargetArtists, "; "),
			confidenceString(r.Confidence),
			yesNo(r.ManuallyVerified),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	return writeCSV(headers, rows)
}

// FailuresToCSV converts failed match records to CSV with one row per record.
func FailuresToCSV(records []*models.FailedMatchRecord) ([]byte, error) {
	headers := []string{
		"ID", "Source Platform", "Source ID", "Source Title", "Source Artists",
		"Target Platform", "Reason", "Created",
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.SourcePlatform,
			r.SourcePlatformID,
			r.SourceTitle,
			strings.Join(r.SourceArtists, "; "),
			r.TargetPlatform,
			r.ErrorReason,
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return writeCSV(headers, rows)
}

// escapeCell keeps a value from breaking a Markdown table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// ReportToMarkdown converts a report to Markdown with a summary, a matches table and a failures table.
func ReportToMarkdown(report *Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}

	var buf bytes.Buffer

	title := report.Title
	if title == "" {
		title = "Match Report"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	if !report.GeneratedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Generated**: %s\n\n", report.GeneratedAt.UTC().Format(time.RFC3339)))
	}

	if s := report.Statistics; s != nil {
		buf.WriteString("## Summary\n\n")
		buf.WriteString(fmt.Sprintf("**Matches**: %d\n", s.TotalMatches))
		buf.WriteString(fmt.Sprintf("**Verified**: %d\n", s.VerifiedMatches))
		buf.WriteString(fmt.Sprintf("**Failed**: %d\n\n", s.FailedMatches))
	}

	buf.WriteString("## Matches\n\n")
	if len(report.Matches) == 0 {
		buf.WriteString("No matches.\n\n")
	} else {
		buf.WriteString("| # | Source | Target | Confidence | Verified |\n")
		buf.WriteString("|---|--------|--------|------------|----------|\n")
		for i, r := range report.Matches {
			buf.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %s |\n",
				i+1,
				escapeCell(r.SourceTrack().String()),
				escapeCell(r.TargetTrack().String()),
				r.Confidence,
				yesNo(r.ManuallyVerified),
			))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Failures\n\n")
	if len(report.Failures) == 0 {
		buf.WriteString("No failures.\n")
	} else {
		buf.WriteString("| # | Source | Target Platform | Reason |\n")
		buf.WriteString("|---|--------|-----------------|--------|\n")
		for i, r := range report.Failures {
			source := models.Track{Title: r.SourceTitle, Artists: models.ArtistsFromNames(r.SourceArtists)}
			buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
				i+1,
				escapeCell(source.String()),
				escapeCell(r.TargetPlatform),
				escapeCell(r.ErrorReason),
			))
		}
	}

	return buf.Bytes(), nil
}

// RunToText converts a playlist run to plain text with one line per source track.
func RunToText(result *tasks.RunResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("run result is nil")
	}

	var buf bytes.Buffer

	if pl := result.SourcePlaylist; pl != nil {
		buf.WriteString(fmt.Sprintf("Source: %s (%s)\n", pl.Title, pl.Platform))
	}
	if pl := result.DestPlaylist; pl != nil {
		buf.WriteString(fmt.Sprintf("Destination: %s (%s)\n", pl.Title, pl.Platform))
	}
	buf.WriteString(fmt.Sprintf("Matched: %d/%d (%.1f%%)\n", result.SuccessCount, result.TotalTracks, result.MatchPercentage))
	buf.WriteString(fmt.Sprintf("Added: %d\n\n", len(result.AddedTracks)))

	for i, m := range result.TrackMatches {
		switch {
		case m.Accepted:
			buf.WriteString(fmt.Sprintf("%d. ✓ %s -> %s (%.2f %s)\n", i+1, m.Original.String(), m.Matched.String(), m.Confidence, m.Band))
		case m.Error != nil:
			buf.WriteString(fmt.Sprintf("%d. ✗ %s (%v)\n", i+1, m.Original.String(), m.Error))
		case m.Matched != nil:
			buf.WriteString(fmt.Sprintf("%d. ✗ %s -> %s (%.2f %s)\n", i+1, m.Original.String(), m.Matched.String(), m.Confidence, m.Band))
		default:
			buf.WriteString(fmt.Sprintf("%d. ✗ %s\n", i+1, m.Original.String()))
		}
	}

	return buf.Bytes(), nil
}

// SyncToText converts a playlist sync to plain text: the run, then the details update and any
// removed tracks.
func SyncToText(result *tasks.SyncResult) ([]byte, error) {
	if result == nil || result.Run == nil {
		return nil, fmt.Errorf("sync result is nil")
	}

	run, err := RunToText(result.Run)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(run)

	buf.WriteString(fmt.Sprintf("\nDetails updated: %s\n", yesNo(result.DetailsUpdated)))
	buf.WriteString(fmt.Sprintf("Removed: %d\n", len(result.Removed)))
	for _, t := range result.Removed {
		buf.WriteString(fmt.Sprintf("  - %s\n", t.String()))
	}

	return buf.Bytes(), nil
}

// DiffToText converts a playlist comparison to plain text.
func DiffToText(result *tasks.DiffResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("diff result is nil")
	}

	var buf bytes.Buffer
	c := result.Comparison

	if c.SourcePlaylist != nil && c.DestPlaylist != nil {
		buf.WriteString(fmt.Sprintf("Comparing %s (%s) with %s (%s)\n",
			c.SourcePlaylist.Title, c.SourcePlaylist.Platform, c.DestPlaylist.Title, c.DestPlaylist.Platform))
	}
	buf.WriteString(fmt.Sprintf("Matched: %d\n", c.MatchedCount()))
	buf.WriteString(fmt.Sprintf("Missing in destination: %d\n", len(c.MissingInDest)))
	buf.WriteString(fmt.Sprintf("Extra in destination: %d\n", len(c.ExtraInDest)))

	if len(c.Matched) > 0 {
		buf.WriteString("\nMatched:\n")
		for _, p := range c.Matched {
			buf.WriteString(fmt.Sprintf("  %s -> %s (%.2f)\n", p.Source.String(), p.Dest.String(), p.Confidence))
		}
	}
	if len(c.MissingInDest) > 0 {
		buf.WriteString("\nMissing:\n")
		for _, t := range c.MissingInDest {
			buf.WriteString(fmt.Sprintf("  - %s\n", t.String()))
		}
	}
	if len(c.ExtraInDest) > 0 {
		buf.WriteString("\nExtra:\n")
		for _, t := range c.ExtraInDest {
			buf.WriteString(fmt.Sprintf("  + %s\n", t.String()))
		}
	}

	return buf.Bytes(), nil
}

// ReportResult contains the paths of files created by WriteReport
type ReportResult struct {
	Directory    string
	MatchesFile  string
	FailuresFile string
	ReadmeFile   string
}

// WriteReport writes a report into dir, creating it if needed.
//
// Creates {dir}/matches.csv, {dir}/failures.csv and {dir}/README.md
func WriteReport(dir string, report *Report) (*ReportResult, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}
	if dir == "" {
		dir = "report"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &ReportResult{
		Directory:    dir,
		MatchesFile:  filepath.Join(dir, "matches.csv"),
		FailuresFile: filepath.Join(dir, "failures.csv"),
		ReadmeFile:   filepath.Join(dir, "README.md"),
	}

	matches, err := MatchesToCSV(report.Matches)
	if err != nil {
		return nil, fmt.Errorf("failed to generate matches CSV: %w", err)
	}
	if err := os.WriteFile(result.MatchesFile, matches, 0644); err != nil {
		return nil, fmt.Errorf("failed to write matches file: %w", err)
	}

	failures, err := FailuresToCSV(report.Failures)
	if err != nil {
		return nil, fmt.Errorf("failed to generate failures CSV: %w", err)
	}
	if err := os.WriteFile(result.FailuresFile, failures, 0644); err != nil {
		return nil, fmt.Errorf("failed to write failures file: %w", err)
	}

	md, err := ReportToMarkdown(report)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}
	if err := os.WriteFile(result.ReadmeFile, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return result, nil
}
