// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package tui implements small bubbletea-driven interactive pickers used by
// the dstore CLI when an operation has more than one candidate and the
// terminal is interactive.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Candidate is one selectable entry in a Picker, e.g. a remote-advertised
// commit or a configured remote name.
type Candidate struct {
	Label string
	Detail string
	Value string
}

// PickerModel drives an interactive single-select list.
type PickerModel struct {
	title      string
	candidates []Candidate
	cursor     int
	chosen     string
	quit       bool
}

// NewPicker constructs a PickerModel over candidates.
func NewPicker(title string, candidates []Candidate) PickerModel {
	return PickerModel{title: title, candidates: candidates}
}

// Init satisfies tea.Model.
func (m PickerModel) Init() tea.Cmd { return nil }

// Update satisfies tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.candidates) > 0 {
			m.chosen = m.candidates[m.cursor].Value
		}
		m.quit = true
		return m, tea.Quit
	case "esc", "ctrl+c", "q":
		m.quit = true
		return m, tea.Quit
	}
	return m, nil
}

// View satisfies tea.Model.
func (m PickerModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")

	for i, c := range m.candidates {
		cursor := "  "
		style := ItemStyle
		if i == m.cursor {
			cursor = CursorStyle.Render("> ")
			style = SelectedItemStyle
		}
		line := c.Label
		if c.Detail != "" {
			line = fmt.Sprintf("%s  %s", c.Label, DescriptionStyle.Render(c.Detail))
		}
		b.WriteString(cursor + style.Render(line) + "\n")
	}

	b.WriteString(FooterStyle.Render("↑/↓ select · enter confirm · esc cancel"))
	return BoxStyle.Render(b.String())
}

// Chosen returns the selected candidate's Value, or "" if the picker was
// cancelled without a selection.
func (m PickerModel) Chosen() string { return m.chosen }

// Quit reports whether the picker has finished (selected or cancelled).
func (m PickerModel) Quit() bool { return m.quit }

// RunPicker drives a PickerModel to completion and returns the chosen
// value, or "" if the user cancelled.
func RunPicker(title string, candidates []Candidate) (string, error) {
	p := tea.NewProgram(NewPicker(title, candidates))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("tui: running picker: %w", err)
	}
	model, ok := final.(PickerModel)
	if !ok {
		return "", fmt.Errorf("tui: unexpected picker model type %T", final)
	}
	return model.Chosen(), nil
}
