package domain

import "time"

// OntologyKind names a family of versioned types. Its value is also the
// path segment used in type URLs.
type OntologyKind string

const (
	EntityTypeKind   OntologyKind = "entity-type"
	PropertyTypeKind OntologyKind = "property-type"
)

const (
	EntityTypeMetaSchema   = "https://blockprotocol.org/types/modules/graph/0.3/schema/entity-type"
	PropertyTypeMetaSchema = "https://blockprotocol.org/types/modules/graph/0.3/schema/property-type"
)

// ValueReference points at another type by versioned URL.
type ValueReference struct {
	Ref string `json:"$ref" bson:"ref" dynamodbav:"ref"`
}

// PropertyTypeReference is the value of an entity type's properties entry:
// either {$ref} or {type: "array", items: {$ref}}.
type PropertyTypeReference struct {
	Ref      string          `json:"$ref,omitempty" bson:"ref,omitempty" dynamodbav:"ref,omitempty"`
	Type     string          `json:"type,omitempty" bson:"type,omitempty" dynamodbav:"type,omitempty"`
	Items    *ValueReference `json:"items,omitempty" bson:"items,omitempty" dynamodbav:"items,omitempty"`
	MinItems *int            `json:"minItems,omitempty" bson:"minItems,omitempty" dynamodbav:"min_items,omitempty"`
	MaxItems *int            `json:"maxItems,omitempty" bson:"maxItems,omitempty" dynamodbav:"max_items,omitempty"`
}

// RefURL returns the referenced property type for both the single-value and
// the array form.
func (r PropertyTypeReference) RefURL() string {
	if r.Type == "array" && r.Items != nil {
		return r.Items.Ref
	}
	return r.Ref
}

type LinkItems struct {
	OneOf []ValueReference `json:"oneOf,omitempty" bson:"oneOf,omitempty" dynamodbav:"one_of,omitempty"`
}

type LinkConstraint struct {
	Type     string    `json:"type" bson:"type" dynamodbav:"type"`
	Items    LinkItems `json:"items" bson:"items" dynamodbav:"items"`
	Ordered  bool      `json:"ordered" bson:"ordered" dynamodbav:"ordered"`
	MinItems *int      `json:"minItems,omitempty" bson:"minItems,omitempty" dynamodbav:"min_items,omitempty"`
	MaxItems *int      `json:"maxItems,omitempty" bson:"maxItems,omitempty" dynamodbav:"max_items,omitempty"`
}

type EntityType struct {
	SchemaURI            string                           `json:"$schema" bson:"schemaUri" dynamodbav:"schema_uri"`
	Kind                 string                           `json:"kind" bson:"kind" dynamodbav:"kind"`
	ID                   string                           `json:"$id" bson:"id" dynamodbav:"id"`
	Type                 string                           `json:"type" bson:"type" dynamodbav:"type"`
	Title                string                           `json:"title" bson:"title" dynamodbav:"title"`
	Description          string                           `json:"description,omitempty" bson:"description,omitempty" dynamodbav:"description,omitempty"`
	Properties           map[string]PropertyTypeReference `json:"properties" bson:"properties" dynamodbav:"properties"`
	Required             []string                         `json:"required,omitempty" bson:"required,omitempty" dynamodbav:"required,omitempty"`
	Links                map[string]LinkConstraint        `json:"links,omitempty" bson:"links,omitempty" dynamodbav:"links,omitempty"`
	AllOf                []ValueReference                 `json:"allOf,omitempty" bson:"allOf,omitempty" dynamodbav:"all_of,omitempty"`
	AdditionalProperties bool                             `json:"additionalProperties" bson:"additionalProperties" dynamodbav:"additional_properties"`
}

// PropertyValues is one admissible shape of a property type's value: a data
// type reference, a property object, or an array of further values.
type PropertyValues struct {
	Ref        string                           `json:"$ref,omitempty" bson:"ref,omitempty" dynamodbav:"ref,omitempty"`
	Type       string                           `json:"type,omitempty" bson:"type,omitempty" dynamodbav:"type,omitempty"`
	Properties map[string]PropertyTypeReference `json:"properties,omitempty" bson:"properties,omitempty" dynamodbav:"properties,omitempty"`
	Items      *PropertyValuesArrayItems        `json:"items,omitempty" bson:"items,omitempty" dynamodbav:"items,omitempty"`
	MinItems   *int                             `json:"minItems,omitempty" bson:"minItems,omitempty" dynamodbav:"min_items,omitempty"`
	MaxItems   *int                             `json:"maxItems,omitempty" bson:"maxItems,omitempty" dynamodbav:"max_items,omitempty"`
}

type PropertyValuesArrayItems struct {
	OneOf []PropertyValues `json:"oneOf" bson:"oneOf" dynamodbav:"one_of"`
}

type PropertyType struct {
	SchemaURI   string           `json:"$schema" bson:"schemaUri" dynamodbav:"schema_uri"`
	Kind        string           `json:"kind" bson:"kind" dynamodbav:"kind"`
	ID          string           `json:"$id" bson:"id" dynamodbav:"id"`
	Title       string           `json:"title" bson:"title" dynamodbav:"title"`
	Description string           `json:"description,omitempty" bson:"description,omitempty" dynamodbav:"description,omitempty"`
	OneOf       []PropertyValues `json:"oneOf" bson:"oneOf" dynamodbav:"one_of"`
}

// RecordID addresses one version of a type.
type RecordID struct {
	BaseURL string `json:"baseUrl" bson:"baseUrl" dynamodbav:"base_url"`
	Version int    `json:"version" bson:"version" dynamodbav:"version"`
}

type OntologyMetadata struct {
	RecordID RecordID `json:"recordId" bson:"recordId" dynamodbav:"record_id"`
}

type TypeWithMetadata[S any] struct {
	Schema   S                `json:"schema" bson:"schema" dynamodbav:"schema"`
	Metadata OntologyMetadata `json:"metadata" bson:"metadata" dynamodbav:"metadata"`
}

// TypeRecord is one stored version of a type. Records are never modified;
// a new version is a new record sharing the base URL.
type TypeRecord[S any] struct {
	RecordKey        string              `json:"-" bson:"_id"`
	RecordID         RecordID            `json:"recordId" bson:"recordId"`
	TypeWithMetadata TypeWithMetadata[S] `json:"typeWithMetadata" bson:"typeWithMetadata"`
	UserID           string              `json:"userId" bson:"userId"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
}

// TypeFilter narrows a type query. An empty UserID matches every author.
type TypeFilter struct {
	LatestOnly bool
	UserID     string
}

// TypeVersionPublished is emitted after a type version has been stored.
type TypeVersionPublished struct {
	Kind         OntologyKind `json:"kind"`
	BaseURL      string       `json:"baseUrl"`
	Version      int          `json:"version"`
	VersionedURL string       `json:"versionedUrl"`
	UserID       string       `json:"userId"`
	PublishedAt  time.Time    `json:"publishedAt"`
}

type CreateTypeRequest[S any] struct {
	Schema S `json:"schema"`
}

type UpdateTypeRequest[S any] struct {
	VersionedURL string `json:"versionedUrl" validate:"required,url"`
	Schema       S      `json:"schema"`
}

// GetTypeRequest addresses a type by exactly one of its URLs.
type GetTypeRequest struct {
	BaseURL      string `json:"baseUrl"`
	VersionedURL string `json:"versionedUrl"`
}

type QueryTypesRequest struct {
	LatestOnly bool   `json:"latestOnly"`
	Shortname  string `json:"shortname"`
}
