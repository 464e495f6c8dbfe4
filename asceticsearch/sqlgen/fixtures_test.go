package sqlgen

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
)

var (
	nameParam = model.SearchParameter{
		ID: 20, Code: "name", URL: "urn:name", Type: model.TypeString,
		BaseResourceTypes: []string{"Patient"},
	}
	codeParam = model.SearchParameter{
		ID: 21, Code: "code", URL: "urn:code", Type: model.TypeToken,
		BaseResourceTypes: []string{"Observation"},
	}
	subjectParam = model.SearchParameter{
		ID: 22, Code: "subject", URL: "urn:subject", Type: model.TypeReference,
		BaseResourceTypes: []string{"Observation"}, TargetResourceTypes: []string{"Patient"},
	}
	birthdateParam = model.SearchParameter{
		ID: 23, Code: "birthdate", URL: "urn:birthdate", Type: model.TypeDate,
		BaseResourceTypes: []string{"Patient"},
	}
	valueParam = model.SearchParameter{
		ID: 24, Code: "value-quantity", URL: "urn:value", Type: model.TypeNumber,
		BaseResourceTypes: []string{"Observation"},
	}
	statusParam = model.SearchParameter{
		ID: 25, Code: "status", URL: "urn:status", Type: model.TypeToken,
		BaseResourceTypes: []string{"Observation"},
	}
	generalPractitionerParam = model.SearchParameter{
		ID: 26, Code: "general-practitioner", URL: "urn:gp", Type: model.TypeReference,
		BaseResourceTypes: []string{"Patient"}, TargetResourceTypes: []string{"Practitioner"},
	}
)

func newTestModel() *model.StaticModel {
	return model.NewStaticModel().
		AddResourceType("Observation", 96).
		AddResourceType("Patient", 103).
		AddResourceType("Practitioner", 104).
		AddSystem("http://loinc.org", 5).
		AddSearchParameter(nameParam).
		AddSearchParameter(codeParam).
		AddSearchParameter(subjectParam).
		AddSearchParameter(birthdateParam).
		AddSearchParameter(valueParam).
		AddSearchParameter(statusParam).
		AddSearchParameter(generalPractitionerParam)
}
