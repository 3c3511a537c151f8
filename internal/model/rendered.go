package model

import "strings"

// MessageKind is the severity of a notification banner.
type MessageKind string

const (
	MessageKindGood    MessageKind = "good"
	MessageKindBad     MessageKind = "bad"
	MessageKindWarning MessageKind = "warning"
)

// Message is a notification banner as rendered.
type Message struct {
	Kind    MessageKind `json:"kind"`
	Title   string      `json:"title"`
	Details []string    `json:"details"`
}

// Badge is a coloured status label inside a table cell.
type Badge struct {
	Text    string   `json:"text"`
	Classes []string `json:"classes"`
}

// HasClass reports whether the badge carries the CSS class.
func (badge Badge) HasClass(class string) bool {
	for _, candidate := range badge.Classes {
		if candidate == class {
			return true
		}
	}
	return false
}

// RenderedCell is one table cell with its decorations.
type RenderedCell struct {
	Text   string   `json:"text"`
	Badges []Badge  `json:"badges,omitempty"`
	Icons  []string `json:"icons,omitempty"`
}

// RenderedTable is a table as rendered inside a widget.
type RenderedTable struct {
	Headers []string         `json:"headers"`
	Rows    [][]RenderedCell `json:"rows"`
}

// Column returns the index of the header, or -1.
func (table RenderedTable) Column(header string) int {
	for index, candidate := range table.Headers {
		if strings.TrimSpace(candidate) == header {
			return index
		}
	}
	return -1
}

// RowTexts returns the cell texts of each row.
func (table RenderedTable) RowTexts() [][]string {
	texts := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		rowTexts := make([]string, 0, len(row))
		for _, cell := range row {
			rowTexts = append(rowTexts, cell.Text)
		}
		texts = append(texts, rowTexts)
	}
	return texts
}
