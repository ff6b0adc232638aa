// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	highlightRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"}).
				Bold(true).
				PaddingLeft(1).PaddingRight(1)
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 0, 4)
)

// highlightTable is a table where some rows can be highlighted.
type highlightTable struct {
	Table       *lgtable.Table
	Count       int
	Highlighted map[int]bool
}

// Row adds a row, highlighted if highlight is true.
func (t *highlightTable) Row(highlight bool, row ...string) {
	if highlight {
		t.Highlighted[t.Count] = true
	}
	t.Table.Row(row...)
	t.Count++
}

// newTable creates a table with the given headers. The alignments are given per column, the last
// one is used for the remaining columns.
func newTable(headers []string, alignments ...lipgloss.Position) *highlightTable {
	t := &highlightTable{Highlighted: make(map[int]bool)}
	t.Table = lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			switch {
			case row < 0:
				return headerRowStyle
			case t.Highlighted[row]:
				s = highlightRowStyle
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			return s.Align(alignment)
		})
	if len(headers) > 0 {
		t.Table.Headers(headers...)
	}
	return t
}

func printTitle(title string) {
	fmt.Println(titleStyle.Render(title))
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding JSON output")
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
