package fixture

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// EntityKind names a kind of provisioned entity.
type EntityKind string

const (
	EntityKindHostGroup         EntityKind = "hostgroup"
	EntityKindTemplate          EntityKind = "template"
	EntityKindHost              EntityKind = "host"
	EntityKindItem              EntityKind = "item"
	EntityKindTrigger           EntityKind = "trigger"
	EntityKindDashboard         EntityKind = "dashboard"
	EntityKindTemplateDashboard EntityKind = "templatedashboard"

	itemKeySeparator = ": "

	errorMessageDuplicateEntity    = "fixture: duplicate entity"
	errorMessageUnresolvedEntity   = "fixture: unresolved entity reference"
	errorMessageEmptyEntityName    = "fixture: empty entity name"
	errorMessageEmptyEntityPointer = "fixture: empty entity identifier"
)

var (
	ErrDuplicateEntity  = errors.New(errorMessageDuplicateEntity)
	ErrUnresolvedEntity = errors.New(errorMessageUnresolvedEntity)
	ErrEmptyEntityName  = errors.New(errorMessageEmptyEntityName)
	ErrEmptyIdentifier  = errors.New(errorMessageEmptyEntityPointer)
)

// ItemKey is the registry name of an item: items are unique per host, not globally.
func ItemKey(hostName string, itemName string) string {
	return hostName + itemKeySeparator + itemName
}

// Registry maps entity names to the identifiers the application assigned, per kind.
type Registry struct {
	mutex       sync.RWMutex
	identifiers map[EntityKind]map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{identifiers: map[EntityKind]map[string]string{}}
}

// Record stores the identifier of a newly created entity.
func (registry *Registry) Record(kind EntityKind, name string, identifier string) error {
	if name == "" {
		return fmt.Errorf("%w: %s", ErrEmptyEntityName, kind)
	}
	if identifier == "" {
		return fmt.Errorf("%w: %s %q", ErrEmptyIdentifier, kind, name)
	}
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	byName, exists := registry.identifiers[kind]
	if !exists {
		byName = map[string]string{}
		registry.identifiers[kind] = byName
	}
	if _, duplicate := byName[name]; duplicate {
		return fmt.Errorf("%w: %s %q", ErrDuplicateEntity, kind, name)
	}
	byName[name] = identifier
	return nil
}

// Lookup returns the identifier recorded for name.
func (registry *Registry) Lookup(kind EntityKind, name string) (string, bool) {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	identifier, found := registry.identifiers[kind][name]
	return identifier, found
}

// Resolve is Lookup reporting a missing entry as ErrUnresolvedEntity.
func (registry *Registry) Resolve(kind EntityKind, name string) (string, error) {
	identifier, found := registry.Lookup(kind, name)
	if !found {
		return "", fmt.Errorf("%w: %s %q", ErrUnresolvedEntity, kind, name)
	}
	return identifier, nil
}

// Names returns the recorded names of a kind in sorted order.
func (registry *Registry) Names(kind EntityKind) []string {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	names := make([]string, 0, len(registry.identifiers[kind]))
	for name := range registry.identifiers[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of recorded entities of all kinds.
func (registry *Registry) Len() int {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	total := 0
	for _, byName := range registry.identifiers {
		total += len(byName)
	}
	return total
}
