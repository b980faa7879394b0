// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxPagesToShow is the default number of pages to display in lists
	maxPagesToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJobSummary outputs a human-readable summary of a job and its pages.
func (p *Printer) PrintJobSummary(job *db.Job, pages []db.Page) {
	if job == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Status:    %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("Input:     %s\n", job.InputType))
	if job.Pipeline != "" {
		sb.WriteString(fmt.Sprintf("Pipeline:  %s\n", job.Pipeline))
	}
	sb.WriteString(fmt.Sprintf("Review:    %v\n", job.RequiresReview))
	sb.WriteString(fmt.Sprintf("Pages:     %d\n", job.TotalPages))
	if job.LayoutConfig != nil {
		sb.WriteString(fmt.Sprintf("Layout:    %s, %s spacing\n",
			job.LayoutConfig.PageSize, job.LayoutConfig.LineSpacing))
	}

	if len(pages) > 0 {
		sb.WriteString("\n")
		sb.WriteString(p.formatPages(pages))
	}

	p.printBox(fmt.Sprintf("Job %s", shortID(job.ID.String())), sb.String())
}

// formatPages renders a compact per-page status listing.
func (p *Printer) formatPages(pages []db.Page) string {
	var sb strings.Builder

	count := min(len(pages), maxPagesToShow)
	for i := 0; i < count; i++ {
		page := pages[i]
		sb.WriteString(fmt.Sprintf("  page %2d  %-13s %5d chars", page.PageNumber, page.Status, page.CharCount))
		if page.RenderAttempts > 0 {
			sb.WriteString(fmt.Sprintf("  (%d attempts)", page.RenderAttempts))
		}
		sb.WriteString("\n")
	}
	if len(pages) > maxPagesToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(pages)-maxPagesToShow))
	}
	return sb.String()
}

// PrintRenderProgress outputs a one-line progress entry for a page.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRenderProgress(pageNumber int, status string) {
	marker := " "
	switch status {
	case domain.PageRendered, domain.PageApproved:
		marker = "✓"
	case domain.PageFailedSystem:
		marker = "✗"
	}
	fmt.Fprintf(p.out, "  %s page %d: %s\n", marker, pageNumber, status)
}

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
