package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParameterTable(t *testing.T) {
	cases := map[SearchParamType]string{
		TypeToken:     TokenTable,
		TypeString:    StringTable,
		TypeNumber:    NumberTable,
		TypeDate:      DateTable,
		TypeReference: ReferenceTable,
		TypeUri:       UriTable,
		TypeResource:  ResourceTable,
	}
	for typ, table := range cases {
		t.Run(string(typ), func(t *testing.T) {
			assert.Equal(t, table, SearchParameter{Type: typ}.Table())
		})
	}
}

func TestSurrogateIDFromTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id := SurrogateIDFromTime(ts)
	assert.Equal(t, ts.UnixMilli()<<20, id)
	assert.Equal(t, ts, TimeFromSurrogateID(id))
	assert.Less(t, id, SurrogateIDFromTime(ts.Add(time.Millisecond)))
}

func TestStaticModel(t *testing.T) {
	subject := SearchParameter{ID: 7, Code: "subject", URL: "urn:subject", Type: TypeReference}
	m := NewStaticModel().
		AddResourceType("Patient", 103).
		AddResourceType("Observation", 96).
		AddSystem("http://loinc.org", 4).
		AddSearchParameter(subject).
		AddCompartmentParameter("Patient", "Observation", subject)

	id, ok := m.ResourceTypeID("Patient")
	require.True(t, ok)
	assert.Equal(t, int16(103), id)

	name, ok := m.ResourceTypeName(96)
	require.True(t, ok)
	assert.Equal(t, "Observation", name)

	assert.Equal(t, []string{"Observation", "Patient"}, m.ResourceTypes())

	system, ok := m.SystemID("http://loinc.org")
	require.True(t, ok)
	assert.Equal(t, int32(4), system)

	assert.Equal(t, []SearchParameter{subject}, m.CompartmentParameters("Patient", "Observation"))
	assert.Empty(t, m.CompartmentParameters("Patient", "Patient"))
	assert.Equal(t, []string{"Observation"}, m.CompartmentResourceTypes("Patient"))

	p, ok := m.SearchParameterByURL(LastUpdatedParameterURL)
	require.True(t, ok)
	assert.Equal(t, "ResourceSurrogateId", p.Column)

	assert.Equal(t, []int16{96, 103}, ResourceTypeIDs(m, []string{"Observation", "Unknown", "Patient"}))
}
