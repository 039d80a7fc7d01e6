// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/JNalv/interview-agent/internal/interview"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// painter renders styles only when writing to a terminal.
type painter struct {
	color bool
}

func (p painter) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// budgetLine formats the status shown after every turn.
func (p painter) budgetLine(st interview.BudgetStatus) string {
	remaining := "unknown"
	if st.RemainingKnown() {
		remaining = fmt.Sprintf("~%d", st.EstimatedRemainingTurns)
	}
	line := fmt.Sprintf("[context %d/%d tokens, %.1f%% used, %s turns left]",
		st.UsedTokens, st.CapacityTokens, st.PercentUsed, remaining)

	switch st.WarningLevel {
	case interview.WarningRed:
		return p.paint(errorStyle, line+" context nearly full, consider :end")
	case interview.WarningYellow:
		return p.paint(warnStyle, line)
	default:
		return p.paint(okStyle, line)
	}
}
