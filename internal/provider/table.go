package provider

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/verify"
)

const (
	errorMessageInvalidTable = "provider: invalid scenario table"
	errorMessageReadTable    = "provider: read scenario table"
	errorMessageDecodeTable  = "provider: decode scenario table"
	errorMessageListTables   = "provider: list scenario tables"

	tableFileExtensionYAML      = ".yaml"
	tableFileExtensionShortYAML = ".yml"
)

// ErrInvalidTable indicates a scenario table that fails validation.
var ErrInvalidTable = errors.New(errorMessageInvalidTable)

// Row is one scenario of a table with its optional rendering expectation. CopyFrom names the
// dashboard the source widget is copied on when it is not the table's own.
type Row struct {
	model.Scenario `yaml:",inline"`
	Screenshot     *verify.ScreenshotExpectation `yaml:"screenshot"`
	CopyFrom       *CopySource                   `yaml:"copy_from"`
}

// CopySource is a dashboard a widget is copied on.
type CopySource struct {
	View      scenario.ViewKind `yaml:"view" validate:"omitempty,oneof=dashboard template-dashboard"`
	Template  string            `yaml:"template" validate:"required_if=View template-dashboard"`
	Dashboard string            `yaml:"dashboard" validate:"required"`
}

// ViewKind returns the declared view kind, defaulting to a regular dashboard.
func (source CopySource) ViewKind() scenario.ViewKind {
	if source.View == "" {
		return scenario.ViewKindDashboard
	}
	return source.View
}

// Table is a named, ordered list of scenarios run against one dashboard. Widget is the current
// widget name before the first scenario runs; Template owns the dashboard of a template view.
type Table struct {
	Name      string            `yaml:"name" validate:"required"`
	Dashboard string            `yaml:"dashboard" validate:"required"`
	View      scenario.ViewKind `yaml:"view" validate:"omitempty,oneof=dashboard template-dashboard"`
	Template  string            `yaml:"template" validate:"required_if=View template-dashboard"`
	Widget    string            `yaml:"widget"`
	Rows      []Row             `yaml:"scenarios" validate:"required,dive"`
}

// ViewKind returns the declared view kind, defaulting to a regular dashboard.
func (table Table) ViewKind() scenario.ViewKind {
	if table.View == "" {
		return scenario.ViewKindDashboard
	}
	return table.View
}

var tableValidator = validator.New()

// LoadTable reads and validates a YAML scenario table. A table without a name is named after its file.
func LoadTable(path string) (Table, error) {
	contents, readErr := os.ReadFile(path)
	if readErr != nil {
		return Table{}, fmt.Errorf("%s: %w", errorMessageReadTable, readErr)
	}
	table, decodeErr := decodeTable(contents)
	if decodeErr != nil {
		return Table{}, fmt.Errorf("%s: %w", path, decodeErr)
	}
	if strings.TrimSpace(table.Name) == "" {
		table.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if validationErr := table.Validate(); validationErr != nil {
		return Table{}, fmt.Errorf("%s: %w", path, validationErr)
	}
	return table, nil
}

// LoadTables loads every YAML table in a directory, ordered by file name.
func LoadTables(directory string) ([]Table, error) {
	entries, listErr := os.ReadDir(directory)
	if listErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageListTables, listErr)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		extension := strings.ToLower(filepath.Ext(entry.Name()))
		if extension == tableFileExtensionYAML || extension == tableFileExtensionShortYAML {
			paths = append(paths, filepath.Join(directory, entry.Name()))
		}
	}
	sort.Strings(paths)

	tables := make([]Table, 0, len(paths))
	names := map[string]string{}
	for _, path := range paths {
		table, loadErr := LoadTable(path)
		if loadErr != nil {
			return nil, loadErr
		}
		if previousPath, duplicate := names[table.Name]; duplicate {
			return nil, fmt.Errorf("%w: table %q declared in %s and %s", ErrInvalidTable, table.Name, previousPath, path)
		}
		names[table.Name] = path
		tables = append(tables, table)
	}
	return tables, nil
}

// ParseTable decodes and validates a YAML scenario table.
func ParseTable(contents []byte) (Table, error) {
	table, decodeErr := decodeTable(contents)
	if decodeErr != nil {
		return Table{}, decodeErr
	}
	if validationErr := table.Validate(); validationErr != nil {
		return Table{}, validationErr
	}
	return table, nil
}

func decodeTable(contents []byte) (Table, error) {
	var table Table
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)
	if decodeErr := decoder.Decode(&table); decodeErr != nil {
		return Table{}, fmt.Errorf("%s: %w", errorMessageDecodeTable, decodeErr)
	}
	return table, nil
}

// Validate checks field constraints, unique scenario names and what each action needs.
func (table Table) Validate() error {
	if structErr := tableValidator.Struct(table); structErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, structErr)
	}

	var problems []error
	report := func(format string, arguments ...interface{}) {
		problems = append(problems, fmt.Errorf(format, arguments...))
	}

	seen := map[string]bool{}
	for _, row := range table.Rows {
		if seen[row.Name] {
			report("scenario %q declared twice", row.Name)
		}
		seen[row.Name] = true

		if row.Expected == model.OutcomeFailure && len(row.ExpectedErrors()) == 0 && row.Message == nil {
			report("scenario %q: failure requires an error", row.Name)
		}
		if row.Expected == model.OutcomeSuccess && len(row.ExpectedErrors()) > 0 {
			report("scenario %q: success cannot expect errors", row.Name)
		}
		if row.WidgetType != "" {
			if _, parseErr := model.ParseWidgetType(string(row.WidgetType)); parseErr != nil {
				report("scenario %q: %v", row.Name, parseErr)
			}
		}
		switch row.Action {
		case model.ActionCreate, model.ActionCancelCreate:
			if row.WidgetType == "" {
				report("scenario %q: %s requires a widget type", row.Name, row.Action)
			}
		case model.ActionCopyPaste, model.ActionReplace:
			if row.Source == "" {
				report("scenario %q: %s requires a source widget", row.Name, row.Action)
			}
		}
		copies := row.Action == model.ActionCopyPaste || row.Action == model.ActionReplace
		if row.CopyFrom != nil && !copies {
			report("scenario %q: copy_from applies to copy-paste and replace", row.Name)
		}
		if row.PasteAvailable != nil && !copies {
			report("scenario %q: paste_available applies to copy-paste and replace", row.Name)
		}
		if row.Action == model.ActionDelete && len(row.Inputs()) > 0 {
			report("scenario %q: delete takes no fields", row.Name)
		}
		if row.RefreshInterval != "" {
			if _, known := model.RefreshIntervalSeconds(row.RefreshInterval); !known {
				report("scenario %q: unknown refresh interval %q", row.Name, row.RefreshInterval)
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTable, errors.Join(problems...))
}
