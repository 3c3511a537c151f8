package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WidgetType is the type tag a widget is stored under.
type WidgetType string

const (
	WidgetTypeActionLog         WidgetType = "actionlog"
	WidgetTypeClock             WidgetType = "clock"
	WidgetTypeDiscoveryStatus   WidgetType = "discovery"
	WidgetTypeGraph             WidgetType = "svggraph"
	WidgetTypeHostAvailability  WidgetType = "hostavail"
	WidgetTypeItemNavigator     WidgetType = "itemnavigator"
	WidgetTypeItemValue         WidgetType = "item"
	WidgetTypeMapNavigationTree WidgetType = "navtree"
	WidgetTypeProblemHosts      WidgetType = "problemhosts"
	WidgetTypeProblems          WidgetType = "problems"
	WidgetTypeSystemInformation WidgetType = "systeminfo"
	WidgetTypeTopHosts          WidgetType = "tophosts"
	WidgetTypeTriggerOverview   WidgetType = "trigover"
	WidgetTypeURL               WidgetType = "url"
	WidgetTypeWebMonitoring     WidgetType = "web"
)

const (
	// GridColumns is the number of columns of a dashboard page grid.
	GridColumns = 72
	// GridMaxRows is the maximum number of rows a widget may span.
	GridMaxRows = 64
	// GridMinRows is the minimum height of a widget in rows.
	GridMinRows = 2

	refreshIntervalDefaultPrefix = "Default ("
	refreshIntervalDefaultSuffix = ")"
	refreshIntervalDefaultLabel  = "Default"
)

var (
	ErrUnknownWidgetType = errors.New("model: unknown widget type")
	ErrGeometryOutOfGrid = errors.New("model: widget geometry out of grid")
)

type widgetTypeDescriptor struct {
	displayName           string
	defaultRefreshSeconds int
}

var widgetTypeDescriptors = map[WidgetType]widgetTypeDescriptor{
	WidgetTypeActionLog:         {displayName: "Action log", defaultRefreshSeconds: 60},
	WidgetTypeClock:             {displayName: "Clock", defaultRefreshSeconds: 900},
	WidgetTypeDiscoveryStatus:   {displayName: "Discovery status", defaultRefreshSeconds: 60},
	WidgetTypeGraph:             {displayName: "Graph", defaultRefreshSeconds: 60},
	WidgetTypeHostAvailability:  {displayName: "Host availability", defaultRefreshSeconds: 900},
	WidgetTypeItemNavigator:     {displayName: "Item navigator", defaultRefreshSeconds: 60},
	WidgetTypeItemValue:         {displayName: "Item value", defaultRefreshSeconds: 60},
	WidgetTypeMapNavigationTree: {displayName: "Map navigation tree", defaultRefreshSeconds: 0},
	WidgetTypeProblemHosts:      {displayName: "Problem hosts", defaultRefreshSeconds: 60},
	WidgetTypeProblems:          {displayName: "Problems", defaultRefreshSeconds: 60},
	WidgetTypeSystemInformation: {displayName: "System information", defaultRefreshSeconds: 900},
	WidgetTypeTopHosts:          {displayName: "Top hosts", defaultRefreshSeconds: 60},
	WidgetTypeTriggerOverview:   {displayName: "Trigger overview", defaultRefreshSeconds: 60},
	WidgetTypeURL:               {displayName: "URL", defaultRefreshSeconds: 0},
	WidgetTypeWebMonitoring:     {displayName: "Web monitoring", defaultRefreshSeconds: 60},
}

var refreshIntervalLabels = map[int]string{
	0:   "No refresh",
	10:  "10 seconds",
	30:  "30 seconds",
	60:  "1 minute",
	120: "2 minutes",
	600: "10 minutes",
	900: "15 minutes",
}

// KnownWidgetTypes lists the widget type vocabulary.
func KnownWidgetTypes() []WidgetType {
	return []WidgetType{
		WidgetTypeActionLog,
		WidgetTypeClock,
		WidgetTypeDiscoveryStatus,
		WidgetTypeGraph,
		WidgetTypeHostAvailability,
		WidgetTypeItemNavigator,
		WidgetTypeItemValue,
		WidgetTypeMapNavigationTree,
		WidgetTypeProblemHosts,
		WidgetTypeProblems,
		WidgetTypeSystemInformation,
		WidgetTypeTopHosts,
		WidgetTypeTriggerOverview,
		WidgetTypeURL,
		WidgetTypeWebMonitoring,
	}
}

// ParseWidgetType accepts either the stored type tag or the display name shown in the type dropdown.
func ParseWidgetType(value string) (WidgetType, error) {
	trimmedValue := strings.TrimSpace(value)
	if _, known := widgetTypeDescriptors[WidgetType(trimmedValue)]; known {
		return WidgetType(trimmedValue), nil
	}
	for widgetType, descriptor := range widgetTypeDescriptors {
		if strings.EqualFold(descriptor.displayName, trimmedValue) {
			return widgetType, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWidgetType, value)
}

// DisplayName returns the name the application shows for the type.
func (widgetType WidgetType) DisplayName() string {
	descriptor, known := widgetTypeDescriptors[widgetType]
	if !known {
		return string(widgetType)
	}
	return descriptor.displayName
}

// DefaultRefreshInterval returns the label of the refresh interval a new widget of this type uses.
func (widgetType WidgetType) DefaultRefreshInterval() string {
	descriptor, known := widgetTypeDescriptors[widgetType]
	if !known {
		return refreshIntervalLabels[60]
	}
	return refreshIntervalLabels[descriptor.defaultRefreshSeconds]
}

// RefreshIntervalSeconds returns the interval in seconds a refresh dropdown label selects.
// Default labels report false.
func RefreshIntervalSeconds(label string) (int, bool) {
	trimmedLabel := strings.TrimSpace(label)
	for seconds, intervalLabel := range refreshIntervalLabels {
		if intervalLabel == trimmedLabel {
			return seconds, true
		}
	}
	return 0, false
}

// ResolveHeaderName returns the header a widget is rendered with: the trimmed name, or the type's
// display name when the trimmed name is blank.
func ResolveHeaderName(widgetType WidgetType, name string) string {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return widgetType.DisplayName()
	}
	return trimmedName
}

// ResolveRefreshInterval turns a dropdown label such as "Default (1 minute)" into the interval the
// widget actually refreshes with.
func ResolveRefreshInterval(widgetType WidgetType, label string) string {
	trimmedLabel := strings.TrimSpace(label)
	if trimmedLabel == "" || trimmedLabel == refreshIntervalDefaultLabel {
		return widgetType.DefaultRefreshInterval()
	}
	if strings.HasPrefix(trimmedLabel, refreshIntervalDefaultPrefix) && strings.HasSuffix(trimmedLabel, refreshIntervalDefaultSuffix) {
		return strings.TrimSuffix(strings.TrimPrefix(trimmedLabel, refreshIntervalDefaultPrefix), refreshIntervalDefaultSuffix)
	}
	return trimmedLabel
}

// Geometry is the position and size of a widget on the page grid.
type Geometry struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Validate reports whether the rectangle fits the page grid.
func (geometry Geometry) Validate() error {
	switch {
	case geometry.X < 0 || geometry.X >= GridColumns:
		return fmt.Errorf("%w: x=%d", ErrGeometryOutOfGrid, geometry.X)
	case geometry.Width < 1 || geometry.Width > GridColumns:
		return fmt.Errorf("%w: width=%d", ErrGeometryOutOfGrid, geometry.Width)
	case geometry.X+geometry.Width > GridColumns:
		return fmt.Errorf("%w: x+width=%d", ErrGeometryOutOfGrid, geometry.X+geometry.Width)
	case geometry.Y < 0:
		return fmt.Errorf("%w: y=%d", ErrGeometryOutOfGrid, geometry.Y)
	case geometry.Height < GridMinRows || geometry.Height > GridMaxRows:
		return fmt.Errorf("%w: height=%d", ErrGeometryOutOfGrid, geometry.Height)
	}
	return nil
}

func (geometry Geometry) String() string {
	return fmt.Sprintf("x=%d y=%d w=%d h=%d", geometry.X, geometry.Y, geometry.Width, geometry.Height)
}

// FieldKind mirrors the type column of the widget_field table.
type FieldKind int

const (
	FieldKindInteger        FieldKind = 0
	FieldKindString         FieldKind = 1
	FieldKindHostGroup      FieldKind = 2
	FieldKindHost           FieldKind = 3
	FieldKindItem           FieldKind = 4
	FieldKindItemPrototype  FieldKind = 5
	FieldKindGraph          FieldKind = 6
	FieldKindGraphPrototype FieldKind = 7
	FieldKindMap            FieldKind = 8
)

// IsReference reports whether values of this kind point at another entity.
func (kind FieldKind) IsReference() bool {
	return kind >= FieldKindHostGroup
}

// FieldValue is a typed widget field value. Reference values carry the entity name until the
// fixture registry resolves them.
type FieldValue struct {
	Kind      FieldKind `yaml:"kind" json:"kind"`
	Integer   int       `yaml:"integer,omitempty" json:"integer,omitempty"`
	Text      string    `yaml:"text,omitempty" json:"text,omitempty"`
	Reference string    `yaml:"reference,omitempty" json:"reference,omitempty"`
}

func IntegerValue(value int) FieldValue {
	return FieldValue{Kind: FieldKindInteger, Integer: value}
}

func StringValue(value string) FieldValue {
	return FieldValue{Kind: FieldKindString, Text: value}
}

func ReferenceValue(kind FieldKind, entityName string) FieldValue {
	return FieldValue{Kind: kind, Reference: entityName}
}

var fieldReferenceKinds = map[string]FieldKind{
	"hostgroup":       FieldKindHostGroup,
	"host":            FieldKindHost,
	"item":            FieldKindItem,
	"item_prototype":  FieldKindItemPrototype,
	"graph":           FieldKindGraph,
	"graph_prototype": FieldKindGraphPrototype,
	"map":             FieldKindMap,
}

// UnmarshalYAML accepts a bare integer, a bare string, or a single-key mapping naming the
// referenced entity kind, e.g. {hostgroup: Linux servers}.
func (value *FieldValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!int" {
			integer, parseErr := strconv.Atoi(node.Value)
			if parseErr != nil {
				return fmt.Errorf("model: field value at line %d: %w", node.Line, parseErr)
			}
			*value = IntegerValue(integer)
			return nil
		}
		*value = StringValue(node.Value)
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("model: field value at line %d: expected a single reference key", node.Line)
		}
		kind, known := fieldReferenceKinds[node.Content[0].Value]
		if !known {
			return fmt.Errorf("model: field value at line %d: unknown reference kind %q", node.Line, node.Content[0].Value)
		}
		*value = ReferenceValue(kind, node.Content[1].Value)
		return nil
	default:
		return fmt.Errorf("model: field value at line %d: unsupported node", node.Line)
	}
}

// WidgetField is one named field of a widget configuration.
type WidgetField struct {
	Name  string     `yaml:"name" json:"name"`
	Value FieldValue `yaml:"value" json:"value"`
}

// Widget describes a widget as it is provisioned or staged.
type Widget struct {
	Type     WidgetType    `yaml:"type" json:"type" validate:"required"`
	Name     string        `yaml:"name" json:"name"`
	Geometry Geometry      `yaml:"geometry" json:"geometry"`
	ViewMode int           `yaml:"view_mode" json:"view_mode"`
	Fields   []WidgetField `yaml:"fields" json:"fields"`
}

// HeaderName returns the header the widget is rendered with.
func (widget Widget) HeaderName() string {
	return ResolveHeaderName(widget.Type, widget.Name)
}

// TagFilterFields expands tag filter rows into the indexed widget fields the application stores.
func TagFilterFields(prefix string, tags []TagFilter) []WidgetField {
	fields := make([]WidgetField, 0, len(tags)*3)
	for index, tag := range tags {
		fieldPrefix := fmt.Sprintf("%s.%d.", prefix, index)
		fields = append(fields,
			WidgetField{Name: fieldPrefix + "tag", Value: StringValue(tag.Tag)},
			WidgetField{Name: fieldPrefix + "operator", Value: IntegerValue(int(tag.Operator))},
			WidgetField{Name: fieldPrefix + "value", Value: StringValue(tag.Value)},
		)
	}
	return fields
}
