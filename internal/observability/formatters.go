// Package observability provides formatted console output for interview
// sessions.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/interview-conductor/internal/coverage"
	"github.com/jonathan/interview-conductor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the console runner
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

// PrintCoverage outputs a human-readable view of must-have coverage and
// competency scores.
func (p *Printer) PrintCoverage(report coverage.SummaryReport) {
	var sb strings.Builder

	sb.WriteString("Must-haves:\n")
	for _, line := range report.MustHaves {
		mark := " "
		if line.Covered {
			mark = "x"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s (conf %.2f, %d evidence)\n",
			mark, line.Skill, line.Confidence, line.Evidence))
	}

	sb.WriteString("\nCompetencies:\n")
	shown := 0
	for _, line := range report.Competencies {
		if line.Observations == 0 {
			continue
		}
		if shown >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Competencies)-shown))
			break
		}
		sb.WriteString(fmt.Sprintf("  %s: %.2f/4.0 over %d observations\n",
			line.Competency, line.Score, line.Observations))
		shown++
	}
	if shown == 0 {
		sb.WriteString("  (no observations yet)\n")
	}

	sb.WriteString(fmt.Sprintf("\nQueued follow-ups: %d, deferred: %d",
		report.FollowupQueueCount, report.DeferQueueCount))

	p.printBox("Coverage", sb.String())
}

// PrintFinal outputs a human-readable summary of the final evaluation.
func (p *Printer) PrintFinal(final *types.FinalRecord) {
	if final == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Recommendation: %s\n", final.Evaluation.Recommendation))
	sb.WriteString(fmt.Sprintf("Score:          %.2f/4.0 (%d/100, %s)\n",
		final.Evaluation.OverallScore, final.DisplayScore, final.Band))
	sb.WriteString(fmt.Sprintf("Questions:      %d asked, %d answered\n",
		final.QuestionCount, final.AnswerCount))

	if len(final.Evaluation.Strengths) > 0 {
		sb.WriteString("\nStrengths:\n")
		for i, s := range final.Evaluation.Strengths {
			if i >= maxItemsToShow {
				break
			}
			sb.WriteString(fmt.Sprintf("  + %s\n", s))
		}
	}
	if len(final.Evaluation.Risks) > 0 {
		sb.WriteString("\nRisks:\n")
		for i, r := range final.Evaluation.Risks {
			if i >= maxItemsToShow {
				break
			}
			sb.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}

	p.printBox("Final evaluation", sb.String())
}
