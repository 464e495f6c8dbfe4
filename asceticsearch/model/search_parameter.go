package model

import (
	"time"
)

type SearchParamType string

const (
	TypeToken     SearchParamType = "token"
	TypeString    SearchParamType = "string"
	TypeNumber    SearchParamType = "number"
	TypeDate      SearchParamType = "date"
	TypeReference SearchParamType = "reference"
	TypeUri       SearchParamType = "uri"
	// TypeResource parameters address columns of dbo.Resource directly.
	TypeResource SearchParamType = "resource"
)

const (
	ResourceTable = "dbo.Resource"

	TokenTable     = "dbo.TokenSearchParam"
	StringTable    = "dbo.StringSearchParam"
	NumberTable    = "dbo.NumberSearchParam"
	DateTable      = "dbo.DateTimeSearchParam"
	ReferenceTable = "dbo.ReferenceSearchParam"
	UriTable       = "dbo.UriSearchParam"
)

type SearchParameter struct {
	ID   int16
	Code string
	URL  string
	Type SearchParamType
	// Column is the dbo.Resource column for TypeResource parameters.
	Column              string
	BaseResourceTypes   []string
	TargetResourceTypes []string
}

// Table returns the table holding index rows of the parameter.
func (p SearchParameter) Table() string {
	switch p.Type {
	case TypeToken:
		return TokenTable
	case TypeString:
		return StringTable
	case TypeNumber:
		return NumberTable
	case TypeDate:
		return DateTable
	case TypeReference:
		return ReferenceTable
	case TypeUri:
		return UriTable
	default:
		return ResourceTable
	}
}

func (p SearchParameter) IsResourceColumn() bool {
	return p.Type == TypeResource
}

func (p SearchParameter) String() string {
	return p.Code
}

const (
	TypeParameterURL        = "http://hl7.org/fhir/SearchParameter/Resource-type"
	IdParameterURL          = "http://hl7.org/fhir/SearchParameter/Resource-id"
	LastUpdatedParameterURL = "http://hl7.org/fhir/SearchParameter/Resource-lastUpdated"
)

var (
	TypeParameter = SearchParameter{
		Code:   "_type",
		URL:    TypeParameterURL,
		Type:   TypeResource,
		Column: "ResourceTypeId",
	}
	IdParameter = SearchParameter{
		Code:   "_id",
		URL:    IdParameterURL,
		Type:   TypeResource,
		Column: "ResourceId",
	}
	LastUpdatedParameter = SearchParameter{
		Code:   "_lastUpdated",
		URL:    LastUpdatedParameterURL,
		Type:   TypeResource,
		Column: "ResourceSurrogateId",
	}
)

const surrogateIdShift = 20

// SurrogateIDFromTime maps a timestamp onto the surrogate id space so that
// _lastUpdated ranges compare against ResourceSurrogateId.
func SurrogateIDFromTime(t time.Time) int64 {
	return t.UnixMilli() << surrogateIdShift
}

func TimeFromSurrogateID(id int64) time.Time {
	return time.UnixMilli(id >> surrogateIdShift).UTC()
}
