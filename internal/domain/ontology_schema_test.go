package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	nameBase = "https://blockprotocol.org/@alice/types/property-type/name/"
	nameV1   = nameBase + "v/1"
)

func TestEntityType_CompleteFillsDefaults(t *testing.T) {
	et := EntityType{Title: "Animal"}
	et.Complete("https://blockprotocol.org/@alice/types/entity-type/animal/v/1")

	assert.Equal(t, EntityTypeMetaSchema, et.SchemaURI)
	assert.Equal(t, "entityType", et.Kind)
	assert.Equal(t, "object", et.Type)
	assert.Equal(t, "https://blockprotocol.org/@alice/types/entity-type/animal/v/1", et.ID)
	assert.NotNil(t, et.Properties)
	assert.NoError(t, et.Validate())
}

func TestEntityType_ValidateProperties(t *testing.T) {
	et := EntityType{
		Title:      "Person",
		Properties: map[string]PropertyTypeReference{nameBase: {Ref: nameV1}},
		Required:   []string{nameBase},
	}
	require.NoError(t, et.Validate())

	et.Properties = map[string]PropertyTypeReference{nameBase: {Type: "array", Items: &ValueReference{Ref: nameV1}}}
	require.NoError(t, et.Validate())

	et.Properties = map[string]PropertyTypeReference{"https://elsewhere/": {Ref: nameV1}}
	et.Required = nil
	assert.ErrorIs(t, et.Validate(), ErrBadRequest)

	et.Properties = map[string]PropertyTypeReference{nameBase: {Ref: nameV1}}
	et.Required = []string{"https://blockprotocol.org/@alice/types/property-type/age/"}
	assert.ErrorIs(t, et.Validate(), ErrBadRequest)
}

func TestEntityType_ValidateLinks(t *testing.T) {
	et := EntityType{
		Title: "Person",
		Links: map[string]LinkConstraint{
			"https://blockprotocol.org/@alice/types/entity-type/friend-of/": {
				Type:  "array",
				Items: LinkItems{OneOf: []ValueReference{{Ref: "https://blockprotocol.org/@alice/types/entity-type/person/v/1"}}},
			},
		},
	}
	require.NoError(t, et.Validate())

	et.Links = map[string]LinkConstraint{"friend-of": {Type: "array"}}
	assert.ErrorIs(t, et.Validate(), ErrBadRequest)
}

func TestPropertyType_Validate(t *testing.T) {
	pt := PropertyType{Title: "Name"}
	assert.ErrorIs(t, pt.Validate(), ErrBadRequest)

	pt.OneOf = []PropertyValues{{Ref: "https://blockprotocol.org/@blockprotocol/types/data-type/text/v/1"}}
	require.NoError(t, pt.Validate())

	pt.OneOf = []PropertyValues{{
		Type: "array",
		Items: &PropertyValuesArrayItems{OneOf: []PropertyValues{
			{Type: "object", Properties: map[string]PropertyTypeReference{nameBase: {Ref: nameV1}}},
		}},
	}}
	require.NoError(t, pt.Validate())

	pt.OneOf = []PropertyValues{{Type: "array"}}
	assert.ErrorIs(t, pt.Validate(), ErrBadRequest)

	pt.OneOf = []PropertyValues{{Type: "number"}}
	assert.ErrorIs(t, pt.Validate(), ErrBadRequest)
}
