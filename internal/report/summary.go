package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/musicdb/internal/store"
)

// ImportSummary describes one import run and the library it left behind
type ImportSummary struct {
	GeneratedAt time.Time
	Duration    time.Duration

	Share        string
	Mount        string
	DatabasePath string
	DatabaseSize int64
	EventLogPath string

	Found     int
	Imported  int
	Unchanged int
	Failed    int

	Tables    []store.TableCount
	TopErrors []ErrorSummary
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// SummarizeErrors groups equal messages, most frequent first, and keeps the
// first limit groups
func SummarizeErrors(errs []error, limit int) []ErrorSummary {
	counts := make(map[string]int)
	for _, err := range errs {
		if err != nil {
			counts[err.Error()]++
		}
	}

	summaries := make([]ErrorSummary, 0, len(counts))
	for msg, n := range counts {
		summaries = append(summaries, ErrorSummary{Error: msg, Count: n})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Error < summaries[j].Error
	})

	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries
}

// WriteMarkdownReport writes the summary as Markdown to outputPath
func WriteMarkdownReport(s *ImportSummary, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(RenderMarkdown(s)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// RenderMarkdown formats the summary as Markdown
func RenderMarkdown(s *ImportSummary) string {
	var md strings.Builder

	md.WriteString("# Music Library Import Report\n\n")
	fmt.Fprintf(&md, "**Generated:** %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&md, "**Share:** `%s`", s.Share)
	if s.Mount != "" {
		fmt.Fprintf(&md, " (%s)", s.Mount)
	}
	md.WriteString("\n\n")
	if s.DatabasePath != "" {
		fmt.Fprintf(&md, "**Database:** `%s`", s.DatabasePath)
		if s.DatabaseSize > 0 {
			fmt.Fprintf(&md, " (%s)", humanize.Bytes(uint64(s.DatabaseSize)))
		}
		md.WriteString("\n\n")
	}
	if s.EventLogPath != "" {
		fmt.Fprintf(&md, "**Event Log:** `%s`\n\n", s.EventLogPath)
	}
	md.WriteString("---\n\n")

	md.WriteString("## Import\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	fmt.Fprintf(&md, "| Files Found | %s |\n", humanize.Comma(int64(s.Found)))
	fmt.Fprintf(&md, "| Imported | %s |\n", humanize.Comma(int64(s.Imported)))
	fmt.Fprintf(&md, "| Unchanged | %s |\n", humanize.Comma(int64(s.Unchanged)))
	if s.Failed > 0 {
		fmt.Fprintf(&md, "| Failed | %s |\n", humanize.Comma(int64(s.Failed)))
	}
	if s.Duration > 0 {
		fmt.Fprintf(&md, "| Duration | %s |\n", s.Duration.Round(time.Second))
	}
	md.WriteString("\n")

	if len(s.Tables) > 0 {
		md.WriteString("## Library\n\n")
		md.WriteString("| Table | Rows |\n")
		md.WriteString("|-------|------|\n")
		for _, t := range s.Tables {
			fmt.Fprintf(&md, "| %s | %s |\n", t.Table, humanize.Comma(t.Rows))
		}
		md.WriteString("\n")
	}

	if len(s.TopErrors) > 0 {
		md.WriteString("## Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, e := range s.TopErrors {
			fmt.Fprintf(&md, "| %d | %s |\n", e.Count, truncate(strings.ReplaceAll(e.Error, "|", `\|`), 120))
		}
		md.WriteString("\n")
	}

	return md.String()
}

// truncate shortens s from the middle, keeping start and end
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	start := maxLen/2 - 2
	end := len(s) - (maxLen/2 - 2)
	return s[:start] + "..." + s[end:]
}
