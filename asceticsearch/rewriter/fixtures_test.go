package rewriter

import (
	"github.com/google/go-cmp/cmp"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/expression"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/model"
)

var (
	nameParam = model.SearchParameter{
		ID: 20, Code: "name", URL: "urn:name", Type: model.TypeString,
		BaseResourceTypes: []string{"Patient", "Practitioner"},
	}
	codeParam = model.SearchParameter{
		ID: 21, Code: "code", URL: "urn:code", Type: model.TypeToken,
		BaseResourceTypes: []string{"Observation"},
	}
	statusParam = model.SearchParameter{
		ID: 25, Code: "status", URL: "urn:status", Type: model.TypeToken,
		BaseResourceTypes: []string{"Observation", "Encounter"},
	}
	subjectParam = model.SearchParameter{
		ID: 22, Code: "subject", URL: "urn:subject", Type: model.TypeReference,
		BaseResourceTypes: []string{"Observation", "Encounter"}, TargetResourceTypes: []string{"Patient"},
	}
	patientParam = model.SearchParameter{
		ID: 27, Code: "patient", URL: "urn:patient", Type: model.TypeReference,
		BaseResourceTypes: []string{"Observation"}, TargetResourceTypes: []string{"Patient"},
	}
	performerParam = model.SearchParameter{
		ID: 28, Code: "performer", URL: "urn:performer", Type: model.TypeReference,
		BaseResourceTypes: []string{"Observation"}, TargetResourceTypes: []string{"Patient", "Practitioner"},
	}
	generalPractitionerParam = model.SearchParameter{
		ID: 26, Code: "general-practitioner", URL: "urn:gp", Type: model.TypeReference,
		BaseResourceTypes: []string{"Patient"}, TargetResourceTypes: []string{"Practitioner"},
	}
	birthdateParam = model.SearchParameter{
		ID: 23, Code: "birthdate", URL: "urn:birthdate", Type: model.TypeDate,
		BaseResourceTypes: []string{"Patient"},
	}
)

func newTestModel() *model.StaticModel {
	return model.NewStaticModel().
		AddResourceType("Encounter", 40).
		AddResourceType("Observation", 96).
		AddResourceType("Patient", 103).
		AddResourceType("Practitioner", 104).
		AddSearchParameter(nameParam).
		AddSearchParameter(codeParam).
		AddSearchParameter(statusParam).
		AddSearchParameter(subjectParam).
		AddSearchParameter(patientParam).
		AddSearchParameter(generalPractitionerParam).
		AddSearchParameter(birthdateParam).
		AddCompartmentParameter("Patient", "Observation", subjectParam).
		AddCompartmentParameter("Patient", "Observation", performerParam).
		AddCompartmentParameter("Patient", "Encounter", subjectParam)
}

func stageStrings(root expression.Root) []string {
	var out []string
	for _, s := range root.Stages() {
		out = append(out, s.String())
	}
	return out
}

func diffStages(root expression.Root, expected ...string) string {
	return cmp.Diff(expected, stageStrings(root))
}

func nameIs(value string) expression.SearchParameterNode {
	return expression.SearchParameter(nameParam, expression.String(expression.FieldText, expression.StringEquals, value, false))
}

func codeIs(value string) expression.SearchParameterNode {
	return expression.SearchParameter(codeParam, expression.Equal(expression.FieldCode, value))
}

type staticResolver struct {
	compartmentTypes map[string]bool
	params           map[string]model.SearchParameter
}

func (r staticResolver) IsCompartmentType(compartmentType string) bool {
	return r.compartmentTypes[compartmentType]
}

func (r staticResolver) SearchParameterByURL(url string) (model.SearchParameter, bool) {
	p, ok := r.params[url]
	return p, ok
}
