package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

// Stage names a provisioning step.
type Stage string

const (
	StageValidate           Stage = "validate"
	StageHostGroups         Stage = "host groups"
	StageTemplates          Stage = "templates"
	StageHosts              Stage = "hosts"
	StageItems              Stage = "items"
	StageTriggers           Stage = "triggers"
	StageTriggerDependency  Stage = "trigger dependencies"
	StageDashboards         Stage = "dashboards"
	StageTemplateDashboards Stage = "template dashboards"

	methodHostGroupCreate         = "hostgroup.create"
	methodTemplateCreate          = "template.create"
	methodHostCreate              = "host.create"
	methodItemCreate              = "item.create"
	methodTriggerCreate           = "trigger.create"
	methodTriggerUpdate           = "trigger.update"
	methodDashboardCreate         = "dashboard.create"
	methodTemplateDashboardCreate = "templatedashboard.create"

	resultKeyGroupIDs     = "groupids"
	resultKeyTemplateIDs  = "templateids"
	resultKeyHostIDs      = "hostids"
	resultKeyItemIDs      = "itemids"
	resultKeyTriggerIDs   = "triggerids"
	resultKeyDashboardIDs = "dashboardids"

	agentInterfaceType = 1
	agentInterfacePort = "10050"

	errorMessageFixtureFailed = "fixture: provisioning failed"
	errorMessageMissingResult = "fixture: api result without identifier"

	logEventProvisionStage = "fixture_stage"
	logEventProvisioned    = "fixture_provisioned"
	logFieldStage          = "stage"
	logFieldEntities       = "entities"
)

var (
	// ErrFixtureFailed marks every provisioning failure. It is fatal to the suite.
	ErrFixtureFailed = errors.New(errorMessageFixtureFailed)
	// ErrMissingResult indicates a create call whose result carried no identifier.
	ErrMissingResult = errors.New(errorMessageMissingResult)
)

// Caller performs one JSON-RPC call.
type Caller interface {
	Call(ctx context.Context, method string, params interface{}, result interface{}) error
}

// Provisioner creates a fixture plan through the API.
type Provisioner struct {
	caller Caller
	logger *zap.Logger
}

// NewProvisioner builds a provisioner around caller.
func NewProvisioner(caller Caller, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{caller: caller, logger: logger}
}

type provisionStep struct {
	stage Stage
	run   func(context.Context, Plan, *Registry) error
}

// Provision validates plan and creates its entities strictly in dependency order. The first
// failure stops provisioning; the returned error wraps ErrFixtureFailed and names the stage.
func (provisioner *Provisioner) Provision(ctx context.Context, plan Plan) (*Registry, error) {
	if validationErr := plan.Validate(); validationErr != nil {
		return nil, stageError(StageValidate, "", validationErr)
	}

	registry := NewRegistry()
	if seedErr := seedExisting(registry, plan.Existing); seedErr != nil {
		return nil, stageError(StageValidate, "", seedErr)
	}

	steps := []provisionStep{
		{stage: StageHostGroups, run: provisioner.createHostGroups},
		{stage: StageTemplates, run: provisioner.createTemplates},
		{stage: StageHosts, run: provisioner.createHosts},
		{stage: StageItems, run: provisioner.createItems},
		{stage: StageTriggers, run: provisioner.createTriggers},
		{stage: StageTriggerDependency, run: provisioner.linkTriggerDependencies},
		{stage: StageDashboards, run: provisioner.createDashboards},
		{stage: StageTemplateDashboards, run: provisioner.createTemplateDashboards},
	}
	for _, step := range steps {
		start := time.Now()
		if stepErr := step.run(ctx, plan, registry); stepErr != nil {
			return registry, stepErr
		}
		provisioner.logger.Info(logEventProvisionStage, zap.String(logFieldStage, string(step.stage)), zap.Duration(logFieldDuration, time.Since(start)))
	}
	provisioner.logger.Info(logEventProvisioned, zap.Int(logFieldEntities, registry.Len()))
	return registry, nil
}

func stageError(stage Stage, entityName string, cause error) error {
	if entityName == "" {
		return fmt.Errorf("%w: stage %s: %w", ErrFixtureFailed, stage, cause)
	}
	return fmt.Errorf("%w: stage %s: %q: %w", ErrFixtureFailed, stage, entityName, cause)
}

func seedExisting(registry *Registry, existing ExistingEntities) error {
	seeds := []struct {
		kind    EntityKind
		entries map[string]string
	}{
		{kind: EntityKindHostGroup, entries: existing.HostGroups},
		{kind: EntityKindTemplate, entries: existing.Templates},
		{kind: EntityKindHost, entries: existing.Hosts},
		{kind: EntityKindItem, entries: existing.Items},
	}
	for _, seed := range seeds {
		for name, identifier := range seed.entries {
			if recordErr := registry.Record(seed.kind, name, identifier); recordErr != nil {
				return recordErr
			}
		}
	}
	return nil
}

func (provisioner *Provisioner) create(ctx context.Context, method string, params interface{}, resultKey string) (string, error) {
	var result map[string][]apiIdentifier
	if callErr := provisioner.caller.Call(ctx, method, params, &result); callErr != nil {
		return "", callErr
	}
	identifiers := result[resultKey]
	if len(identifiers) == 0 || identifiers[0] == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingResult, method)
	}
	return string(identifiers[0]), nil
}

// apiIdentifier accepts identifiers encoded as JSON strings or numbers.
type apiIdentifier string

func (identifier *apiIdentifier) UnmarshalJSON(data []byte) error {
	var text string
	if json.Unmarshal(data, &text) == nil {
		*identifier = apiIdentifier(text)
		return nil
	}
	var number json.Number
	if decodeErr := json.Unmarshal(data, &number); decodeErr != nil {
		return decodeErr
	}
	*identifier = apiIdentifier(number.String())
	return nil
}

func (provisioner *Provisioner) createHostGroups(ctx context.Context, plan Plan, registry *Registry) error {
	for _, hostGroup := range plan.HostGroups {
		identifier, createErr := provisioner.create(ctx, methodHostGroupCreate, map[string]interface{}{"name": hostGroup.Name}, resultKeyGroupIDs)
		if createErr != nil {
			return stageError(StageHostGroups, hostGroup.Name, createErr)
		}
		if recordErr := registry.Record(EntityKindHostGroup, hostGroup.Name, identifier); recordErr != nil {
			return stageError(StageHostGroups, hostGroup.Name, recordErr)
		}
	}
	return nil
}

func (provisioner *Provisioner) createTemplates(ctx context.Context, plan Plan, registry *Registry) error {
	for _, template := range plan.Templates {
		groups, resolveErr := identifierObjects(registry, EntityKindHostGroup, "groupid", template.Groups)
		if resolveErr != nil {
			return stageError(StageTemplates, template.Name, resolveErr)
		}
		params := map[string]interface{}{"host": template.Name, "groups": groups}
		identifier, createErr := provisioner.create(ctx, methodTemplateCreate, params, resultKeyTemplateIDs)
		if createErr != nil {
			return stageError(StageTemplates, template.Name, createErr)
		}
		if recordErr := registry.Record(EntityKindTemplate, template.Name, identifier); recordErr != nil {
			return stageError(StageTemplates, template.Name, recordErr)
		}
	}
	return nil
}

func (provisioner *Provisioner) createHosts(ctx context.Context, plan Plan, registry *Registry) error {
	for _, host := range plan.Hosts {
		groups, resolveErr := identifierObjects(registry, EntityKindHostGroup, "groupid", host.Groups)
		if resolveErr != nil {
			return stageError(StageHosts, host.Name, resolveErr)
		}
		templates, resolveErr := identifierObjects(registry, EntityKindTemplate, "templateid", host.Templates)
		if resolveErr != nil {
			return stageError(StageHosts, host.Name, resolveErr)
		}
		params := map[string]interface{}{"host": host.Name, "groups": groups}
		if len(templates) > 0 {
			params["templates"] = templates
		}
		if host.Address != "" {
			params["interfaces"] = []map[string]interface{}{{
				"type":  agentInterfaceType,
				"main":  1,
				"useip": 1,
				"ip":    host.Address,
				"dns":   "",
				"port":  agentInterfacePort,
			}}
		}
		identifier, createErr := provisioner.create(ctx, methodHostCreate, params, resultKeyHostIDs)
		if createErr != nil {
			return stageError(StageHosts, host.Name, createErr)
		}
		if recordErr := registry.Record(EntityKindHost, host.Name, identifier); recordErr != nil {
			return stageError(StageHosts, host.Name, recordErr)
		}
	}
	return nil
}

func (provisioner *Provisioner) createItems(ctx context.Context, plan Plan, registry *Registry) error {
	for _, item := range plan.Items {
		itemKey := ItemKey(item.Host, item.Name)
		hostIdentifier, found := registry.Lookup(EntityKindHost, item.Host)
		if !found {
			templateIdentifier, resolveErr := registry.Resolve(EntityKindTemplate, item.Host)
			if resolveErr != nil {
				return stageError(StageItems, itemKey, resolveErr)
			}
			hostIdentifier = templateIdentifier
		}
		params := map[string]interface{}{
			"name":       item.Name,
			"key_":       item.Key,
			"hostid":     hostIdentifier,
			"type":       item.Type,
			"value_type": item.ValueType,
		}
		if item.Delay != "" {
			params["delay"] = item.Delay
		}
		identifier, createErr := provisioner.create(ctx, methodItemCreate, params, resultKeyItemIDs)
		if createErr != nil {
			return stageError(StageItems, itemKey, createErr)
		}
		if recordErr := registry.Record(EntityKindItem, itemKey, identifier); recordErr != nil {
			return stageError(StageItems, itemKey, recordErr)
		}
	}
	return nil
}

func (provisioner *Provisioner) createTriggers(ctx context.Context, plan Plan, registry *Registry) error {
	for _, trigger := range plan.Triggers {
		params := map[string]interface{}{
			"description": trigger.Description,
			"expression":  trigger.Expression,
			"priority":    trigger.Priority,
		}
		identifier, createErr := provisioner.create(ctx, methodTriggerCreate, params, resultKeyTriggerIDs)
		if createErr != nil {
			return stageError(StageTriggers, trigger.Description, createErr)
		}
		if recordErr := registry.Record(EntityKindTrigger, trigger.Description, identifier); recordErr != nil {
			return stageError(StageTriggers, trigger.Description, recordErr)
		}
	}
	return nil
}

func (provisioner *Provisioner) linkTriggerDependencies(ctx context.Context, plan Plan, registry *Registry) error {
	for _, trigger := range plan.Triggers {
		if len(trigger.Dependencies) == 0 {
			continue
		}
		triggerIdentifier, resolveErr := registry.Resolve(EntityKindTrigger, trigger.Description)
		if resolveErr != nil {
			return stageError(StageTriggerDependency, trigger.Description, resolveErr)
		}
		dependencies, resolveErr := identifierObjects(registry, EntityKindTrigger, "triggerid", trigger.Dependencies)
		if resolveErr != nil {
			return stageError(StageTriggerDependency, trigger.Description, resolveErr)
		}
		params := map[string]interface{}{"triggerid": triggerIdentifier, "dependencies": dependencies}
		if callErr := provisioner.caller.Call(ctx, methodTriggerUpdate, params, nil); callErr != nil {
			return stageError(StageTriggerDependency, trigger.Description, callErr)
		}
	}
	return nil
}

func (provisioner *Provisioner) createDashboards(ctx context.Context, plan Plan, registry *Registry) error {
	for _, dashboard := range plan.Dashboards {
		params, paramsErr := dashboardParams(registry, dashboard)
		if paramsErr != nil {
			return stageError(StageDashboards, dashboard.Name, paramsErr)
		}
		identifier, createErr := provisioner.create(ctx, methodDashboardCreate, params, resultKeyDashboardIDs)
		if createErr != nil {
			return stageError(StageDashboards, dashboard.Name, createErr)
		}
		if recordErr := registry.Record(EntityKindDashboard, dashboard.Name, identifier); recordErr != nil {
			return stageError(StageDashboards, dashboard.Name, recordErr)
		}
	}
	return nil
}

func (provisioner *Provisioner) createTemplateDashboards(ctx context.Context, plan Plan, registry *Registry) error {
	for _, dashboard := range plan.TemplateDashboards {
		templateIdentifier, resolveErr := registry.Resolve(EntityKindTemplate, dashboard.Template)
		if resolveErr != nil {
			return stageError(StageTemplateDashboards, dashboard.Name, resolveErr)
		}
		params, paramsErr := dashboardParams(registry, dashboard)
		if paramsErr != nil {
			return stageError(StageTemplateDashboards, dashboard.Name, paramsErr)
		}
		params["templateid"] = templateIdentifier
		delete(params, "auto_start")
		identifier, createErr := provisioner.create(ctx, methodTemplateDashboardCreate, params, resultKeyDashboardIDs)
		if createErr != nil {
			return stageError(StageTemplateDashboards, dashboard.Name, createErr)
		}
		if recordErr := registry.Record(EntityKindTemplateDashboard, TemplateDashboardKey(dashboard.Template, dashboard.Name), identifier); recordErr != nil {
			return stageError(StageTemplateDashboards, dashboard.Name, recordErr)
		}
	}
	return nil
}

// TemplateDashboardKey is the registry name of a template dashboard; names are unique per template.
func TemplateDashboardKey(templateName string, dashboardName string) string {
	return templateName + itemKeySeparator + dashboardName
}

func dashboardParams(registry *Registry, dashboard model.Dashboard) (map[string]interface{}, error) {
	pages := make([]map[string]interface{}, 0, len(dashboard.Pages))
	for _, page := range dashboard.Pages {
		widgets := make([]map[string]interface{}, 0, len(page.Widgets))
		for _, widget := range page.Widgets {
			fields := make([]map[string]interface{}, 0, len(widget.Fields))
			for _, field := range widget.Fields {
				value, valueErr := fieldParamValue(registry, field.Value)
				if valueErr != nil {
					return nil, fmt.Errorf("widget %q field %q: %w", widget.HeaderName(), field.Name, valueErr)
				}
				fields = append(fields, map[string]interface{}{
					"type":  int(field.Value.Kind),
					"name":  field.Name,
					"value": value,
				})
			}
			widgets = append(widgets, map[string]interface{}{
				"type":      string(widget.Type),
				"name":      widget.Name,
				"x":         widget.Geometry.X,
				"y":         widget.Geometry.Y,
				"width":     widget.Geometry.Width,
				"height":    widget.Geometry.Height,
				"view_mode": widget.ViewMode,
				"fields":    fields,
			})
		}
		pages = append(pages, map[string]interface{}{
			"name":           page.Name,
			"display_period": page.DisplayPeriod,
			"widgets":        widgets,
		})
	}
	autoStart := 0
	if dashboard.AutoStart {
		autoStart = 1
	}
	params := map[string]interface{}{
		"name":       dashboard.Name,
		"auto_start": autoStart,
		"pages":      pages,
	}
	if dashboard.DisplayPeriod > 0 {
		params["display_period"] = dashboard.DisplayPeriod
	}
	return params, nil
}

var referenceEntityKinds = map[model.FieldKind]EntityKind{
	model.FieldKindHostGroup: EntityKindHostGroup,
	model.FieldKindHost:      EntityKindHost,
	model.FieldKindItem:      EntityKindItem,
}

func fieldParamValue(registry *Registry, value model.FieldValue) (interface{}, error) {
	switch value.Kind {
	case model.FieldKindInteger:
		return value.Integer, nil
	case model.FieldKindString:
		return value.Text, nil
	}
	entityKind, resolvable := referenceEntityKinds[value.Kind]
	if !resolvable {
		if _, numericErr := strconv.ParseInt(value.Reference, 10, 64); numericErr != nil {
			return nil, fmt.Errorf("%w: field kind %d needs a numeric identifier, got %q", ErrUnresolvedEntity, value.Kind, value.Reference)
		}
		return value.Reference, nil
	}
	return registry.Resolve(entityKind, value.Reference)
}

func identifierObjects(registry *Registry, kind EntityKind, key string, names []string) ([]map[string]string, error) {
	objects := make([]map[string]string, 0, len(names))
	for _, name := range names {
		identifier, resolveErr := registry.Resolve(kind, name)
		if resolveErr != nil {
			return nil, resolveErr
		}
		objects = append(objects, map[string]string{key: identifier})
	}
	return objects, nil
}
