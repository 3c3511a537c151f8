package provider

import (
	"fmt"
	"testing"
)

// Run runs each row as a subtest, in declared order.
func Run(t *testing.T, table Table, run func(testingT *testing.T, row Row)) {
	t.Helper()
	for _, row := range table.Rows {
		row := row
		t.Run(row.Name, func(testingT *testing.T) {
			run(testingT, row)
		})
	}
}

// Each calls visit for each row in declared order and stops at the first error.
func Each(table Table, visit func(index int, row Row) error) error {
	for index, row := range table.Rows {
		if visitErr := visit(index, row); visitErr != nil {
			return fmt.Errorf("%s/%s: %w", table.Name, row.Name, visitErr)
		}
	}
	return nil
}
