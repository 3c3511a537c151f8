package verify

import (
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

// AssertRenderedTable compares a rendered widget table with literal expected rows. Unordered tables
// match when every expected row pairs with a distinct rendered row.
func AssertRenderedTable(expected model.ExpectedTable, actual model.RenderedTable) error {
	if len(expected.Headers) > 0 && !equalHeaders(expected.Headers, actual.Headers) {
		return mismatch(checkTableHeaders, fmt.Sprintf("%q", expected.Headers), fmt.Sprintf("%q", actual.Headers))
	}
	if len(expected.Rows) != len(actual.Rows) {
		return mismatch(checkTableRowCount, len(expected.Rows), fmt.Sprintf("%d %q", len(actual.Rows), actual.RowTexts()))
	}
	if expected.Ordered {
		for index, expectedRow := range expected.Rows {
			if !MatchRow(expectedRow, actual.Rows[index]) {
				return mismatch(fmt.Sprintf("%s %d", checkTableRow, index+1), describeRow(expectedRow), fmt.Sprintf("%q", actual.RowTexts()[index]))
			}
		}
		return nil
	}
	if unmatched, matched := matchRows(expected.Rows, actual.Rows); !matched {
		return mismatch(checkTableRow, describeRow(expected.Rows[unmatched]), fmt.Sprintf("%q", actual.RowTexts()))
	}
	return nil
}

// MatchRow reports whether every expected cell matches the rendered cell at the same position.
func MatchRow(expected []model.ExpectedCell, actual []model.RenderedCell) bool {
	if len(expected) != len(actual) {
		return false
	}
	for index, expectedCell := range expected {
		if !MatchCell(expectedCell, actual[index]) {
			return false
		}
	}
	return true
}

// MatchCell applies a partial cell matcher.
func MatchCell(expected model.ExpectedCell, actual model.RenderedCell) bool {
	switch expected.Matcher {
	case model.CellMatchAny:
		return true
	case model.CellMatchContains:
		return strings.Contains(actual.Text, expected.Text)
	case model.CellMatchBadge:
		for _, badge := range actual.Badges {
			if strings.TrimSpace(badge.Text) != expected.Text {
				continue
			}
			if expected.Class == "" || badge.HasClass(expected.Class) {
				return true
			}
		}
		return false
	case model.CellMatchIcon:
		for _, icon := range actual.Icons {
			if icon == expected.Class {
				return true
			}
		}
		return false
	default:
		return strings.TrimSpace(actual.Text) == expected.Text
	}
}

// matchRows pairs each expected row with a distinct rendered row by augmenting paths. It returns
// the index of the first expected row left unpaired.
func matchRows(expected [][]model.ExpectedCell, actual [][]model.RenderedCell) (int, bool) {
	candidates := make([][]int, len(expected))
	for expectedIndex, expectedRow := range expected {
		for actualIndex, actualRow := range actual {
			if MatchRow(expectedRow, actualRow) {
				candidates[expectedIndex] = append(candidates[expectedIndex], actualIndex)
			}
		}
	}
	owner := make([]int, len(actual))
	for index := range owner {
		owner[index] = -1
	}
	for expectedIndex := range expected {
		visited := make([]bool, len(actual))
		if !augment(expectedIndex, candidates, owner, visited) {
			return expectedIndex, false
		}
	}
	return -1, true
}

func augment(expectedIndex int, candidates [][]int, owner []int, visited []bool) bool {
	for _, actualIndex := range candidates[expectedIndex] {
		if visited[actualIndex] {
			continue
		}
		visited[actualIndex] = true
		if owner[actualIndex] == -1 || augment(owner[actualIndex], candidates, owner, visited) {
			owner[actualIndex] = expectedIndex
			return true
		}
	}
	return false
}

func equalHeaders(expected []string, actual []string) bool {
	if len(expected) != len(actual) {
		return false
	}
	for index, header := range expected {
		if strings.TrimSpace(actual[index]) != header {
			return false
		}
	}
	return true
}

func describeRow(row []model.ExpectedCell) string {
	cells := make([]string, 0, len(row))
	for _, cell := range row {
		cells = append(cells, cell.String())
	}
	return "[" + strings.Join(cells, " ") + "]"
}
