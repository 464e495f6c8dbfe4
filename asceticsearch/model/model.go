package model

import (
	"sort"
	"sync"
)

// Model exposes the metadata the search core needs from the outer layers.
type Model interface {
	ResourceTypeID(name string) (int16, bool)
	ResourceTypeName(id int16) (string, bool)
	ResourceTypes() []string
	SystemID(system string) (int32, bool)
	// CompartmentParameters lists the reference parameters linking resourceType
	// into compartmentType, or nothing when it is not a member.
	CompartmentParameters(compartmentType, resourceType string) []SearchParameter
	CompartmentResourceTypes(compartmentType string) []string
	SearchParameterByURL(url string) (SearchParameter, bool)
}

type compartmentKey struct {
	compartmentType string
	resourceType    string
}

// StaticModel is an in-memory Model.
type StaticModel struct {
	mu           sync.RWMutex
	typeIDs      map[string]int16
	typeNames    map[int16]string
	systems      map[string]int32
	compartments map[compartmentKey][]SearchParameter
	parameters   map[string]SearchParameter
}

var _ Model = (*StaticModel)(nil)

func NewStaticModel() *StaticModel {
	m := &StaticModel{
		typeIDs:      map[string]int16{},
		typeNames:    map[int16]string{},
		systems:      map[string]int32{},
		compartments: map[compartmentKey][]SearchParameter{},
		parameters:   map[string]SearchParameter{},
	}
	for _, p := range []SearchParameter{TypeParameter, IdParameter, LastUpdatedParameter} {
		m.parameters[p.URL] = p
	}
	return m
}

func (m *StaticModel) AddResourceType(name string, id int16) *StaticModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeIDs[name] = id
	m.typeNames[id] = name
	return m
}

func (m *StaticModel) AddSystem(system string, id int32) *StaticModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systems[system] = id
	return m
}

func (m *StaticModel) AddSearchParameter(p SearchParameter) *StaticModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parameters[p.URL] = p
	return m
}

func (m *StaticModel) AddCompartmentParameter(compartmentType, resourceType string, p SearchParameter) *StaticModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := compartmentKey{compartmentType, resourceType}
	m.compartments[key] = append(m.compartments[key], p)
	return m
}

func (m *StaticModel) ResourceTypeID(name string) (int16, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.typeIDs[name]
	return id, ok
}

func (m *StaticModel) ResourceTypeName(id int16) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.typeNames[id]
	return name, ok
}

func (m *StaticModel) ResourceTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.typeIDs))
	for name := range m.typeIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *StaticModel) SystemID(system string) (int32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.systems[system]
	return id, ok
}

func (m *StaticModel) CompartmentParameters(compartmentType, resourceType string) []SearchParameter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	params := m.compartments[compartmentKey{compartmentType, resourceType}]
	return append([]SearchParameter(nil), params...)
}

func (m *StaticModel) CompartmentResourceTypes(compartmentType string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var types []string
	for key := range m.compartments {
		if key.compartmentType == compartmentType {
			types = append(types, key.resourceType)
		}
	}
	sort.Strings(types)
	return types
}

func (m *StaticModel) SearchParameterByURL(url string) (SearchParameter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.parameters[url]
	return p, ok
}

// ResourceTypeIDs resolves names, skipping unknown ones, preserving order.
func ResourceTypeIDs(m Model, names []string) []int16 {
	ids := make([]int16, 0, len(names))
	for _, name := range names {
		if id, ok := m.ResourceTypeID(name); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
