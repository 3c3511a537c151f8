package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

const (
	errorMessageInvalidPlan = "fixture: invalid plan"
	errorMessageReadPlan    = "fixture: read plan"
	errorMessageDecodePlan  = "fixture: decode plan"
)

// ErrInvalidPlan indicates a fixture plan that fails validation.
var ErrInvalidPlan = errors.New(errorMessageInvalidPlan)

// ExistingEntities names entities that already exist in the application, with their identifiers.
type ExistingEntities struct {
	HostGroups map[string]string `yaml:"host_groups"`
	Templates  map[string]string `yaml:"templates"`
	Hosts      map[string]string `yaml:"hosts"`
	Items      map[string]string `yaml:"items"`
}

// Plan is the fixture state a suite needs, created in dependency order.
type Plan struct {
	Existing           ExistingEntities  `yaml:"existing"`
	HostGroups         []model.HostGroup `yaml:"host_groups" validate:"dive"`
	Templates          []model.Template  `yaml:"templates" validate:"dive"`
	Hosts              []model.Host      `yaml:"hosts" validate:"dive"`
	Items              []model.Item      `yaml:"items" validate:"dive"`
	Triggers           []model.Trigger   `yaml:"triggers" validate:"dive"`
	Dashboards         []model.Dashboard `yaml:"dashboards" validate:"dive"`
	TemplateDashboards []model.Dashboard `yaml:"template_dashboards" validate:"dive"`
}

var planValidator = validator.New()

// LoadPlan reads and validates a YAML fixture plan.
func LoadPlan(path string) (Plan, error) {
	contents, readErr := os.ReadFile(path)
	if readErr != nil {
		return Plan{}, fmt.Errorf("%s: %w", errorMessageReadPlan, readErr)
	}
	return ParsePlan(contents)
}

// ParsePlan decodes and validates a YAML fixture plan.
func ParsePlan(contents []byte) (Plan, error) {
	var plan Plan
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)
	if decodeErr := decoder.Decode(&plan); decodeErr != nil {
		return Plan{}, fmt.Errorf("%s: %w", errorMessageDecodePlan, decodeErr)
	}
	if validationErr := plan.Validate(); validationErr != nil {
		return Plan{}, validationErr
	}
	return plan, nil
}

// Validate checks field constraints and that every name the plan refers to is either declared
// in the plan or listed as existing.
func (plan Plan) Validate() error {
	if structErr := planValidator.Struct(plan); structErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlan, structErr)
	}

	var problems []error
	report := func(format string, arguments ...interface{}) {
		problems = append(problems, fmt.Errorf(format, arguments...))
	}

	hostGroups := namesWithExisting(plan.Existing.HostGroups)
	for _, hostGroup := range plan.HostGroups {
		if hostGroups[hostGroup.Name] {
			report("host group %q declared twice", hostGroup.Name)
		}
		hostGroups[hostGroup.Name] = true
	}

	templates := namesWithExisting(plan.Existing.Templates)
	for _, template := range plan.Templates {
		if templates[template.Name] {
			report("template %q declared twice", template.Name)
		}
		templates[template.Name] = true
		for _, groupName := range template.Groups {
			if !hostGroups[groupName] {
				report("template %q: unknown host group %q", template.Name, groupName)
			}
		}
	}

	hosts := namesWithExisting(plan.Existing.Hosts)
	for _, host := range plan.Hosts {
		if hosts[host.Name] {
			report("host %q declared twice", host.Name)
		}
		hosts[host.Name] = true
		for _, groupName := range host.Groups {
			if !hostGroups[groupName] {
				report("host %q: unknown host group %q", host.Name, groupName)
			}
		}
		for _, templateName := range host.Templates {
			if !templates[templateName] {
				report("host %q: unknown template %q", host.Name, templateName)
			}
		}
	}

	items := namesWithExisting(plan.Existing.Items)
	for _, item := range plan.Items {
		if !hosts[item.Host] && !templates[item.Host] {
			report("item %q: unknown host %q", item.Name, item.Host)
		}
		itemKey := ItemKey(item.Host, item.Name)
		if items[itemKey] {
			report("item %q declared twice", itemKey)
		}
		items[itemKey] = true
	}

	triggers := map[string]bool{}
	for _, trigger := range plan.Triggers {
		if triggers[trigger.Description] {
			report("trigger %q declared twice", trigger.Description)
		}
		triggers[trigger.Description] = true
	}
	for _, trigger := range plan.Triggers {
		for _, dependency := range trigger.Dependencies {
			if !triggers[dependency] {
				report("trigger %q: unknown dependency %q", trigger.Description, dependency)
			}
			if dependency == trigger.Description {
				report("trigger %q depends on itself", trigger.Description)
			}
		}
	}

	references := map[model.FieldKind]map[string]bool{
		model.FieldKindHostGroup: hostGroups,
		model.FieldKindHost:      hosts,
		model.FieldKindItem:      items,
	}
	validateDashboards := func(dashboards []model.Dashboard, templateDashboards bool) {
		seen := map[string]bool{}
		for _, dashboard := range dashboards {
			if seen[dashboard.Template+"\x00"+dashboard.Name] {
				report("dashboard %q declared twice", dashboard.Name)
			}
			seen[dashboard.Template+"\x00"+dashboard.Name] = true
			if templateDashboards && !templates[dashboard.Template] {
				report("template dashboard %q: unknown template %q", dashboard.Name, dashboard.Template)
			}
			if !templateDashboards && dashboard.IsTemplateDashboard() {
				report("dashboard %q: template dashboards belong under template_dashboards", dashboard.Name)
			}
			for _, widget := range dashboard.Widgets() {
				if _, parseErr := model.ParseWidgetType(string(widget.Type)); parseErr != nil {
					report("dashboard %q: %v", dashboard.Name, parseErr)
				}
				if geometryErr := widget.Geometry.Validate(); geometryErr != nil {
					report("dashboard %q widget %q: %v", dashboard.Name, widget.HeaderName(), geometryErr)
				}
				for _, field := range widget.Fields {
					if !field.Value.Kind.IsReference() {
						continue
					}
					known, checked := references[field.Value.Kind]
					if checked && !known[field.Value.Reference] {
						report("dashboard %q widget %q field %q: unknown reference %q", dashboard.Name, widget.HeaderName(), field.Name, field.Value.Reference)
					}
				}
			}
		}
	}
	validateDashboards(plan.Dashboards, false)
	validateDashboards(plan.TemplateDashboards, true)

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(problems...))
}

func namesWithExisting(existing map[string]string) map[string]bool {
	names := make(map[string]bool, len(existing))
	for name := range existing {
		names[name] = true
	}
	return names
}
