package domain

import "fmt"

// Complete fills the fields every stored entity type carries.
func (t *EntityType) Complete(versionedURL string) {
	t.SchemaURI = EntityTypeMetaSchema
	t.Kind = "entityType"
	t.ID = versionedURL
	t.Type = "object"
	t.AdditionalProperties = false
	if t.Properties == nil {
		t.Properties = map[string]PropertyTypeReference{}
	}
}

func (t *EntityType) SchemaTitle() string { return t.Title }

// Validate checks the structure of a completed entity type.
func (t *EntityType) Validate() error {
	if t.Title == "" {
		return NewParamError(ErrBadRequest, "schema.title", "title is required")
	}
	for key, ref := range t.Properties {
		target, err := ParseVersionedURL(ref.RefURL())
		if err != nil {
			return NewParamError(ErrBadRequest, "schema.properties", fmt.Sprintf("property %q must reference a versioned property type URL", key))
		}
		if target.BaseURL != key {
			return NewParamError(ErrBadRequest, "schema.properties", fmt.Sprintf("property key %q must equal the base URL of its $ref", key))
		}
		if ref.Type != "" && ref.Type != "array" {
			return NewParamError(ErrBadRequest, "schema.properties", fmt.Sprintf("property %q has unsupported type %q", key, ref.Type))
		}
	}
	for _, req := range t.Required {
		if _, ok := t.Properties[req]; !ok {
			return NewParamError(ErrBadRequest, "schema.required", fmt.Sprintf("required property %q is not in properties", req))
		}
	}
	for key, link := range t.Links {
		if !IsBaseURL(key) {
			return NewParamError(ErrBadRequest, "schema.links", fmt.Sprintf("link key %q must be an entity type base URL", key))
		}
		for _, target := range link.Items.OneOf {
			if _, err := ParseVersionedURL(target.Ref); err != nil {
				return NewParamError(ErrBadRequest, "schema.links", fmt.Sprintf("link %q must reference versioned entity type URLs", key))
			}
		}
	}
	for _, parent := range t.AllOf {
		if _, err := ParseVersionedURL(parent.Ref); err != nil {
			return NewParamError(ErrBadRequest, "schema.allOf", "allOf must reference versioned entity type URLs")
		}
	}
	return nil
}

// Complete fills the fields every stored property type carries.
func (t *PropertyType) Complete(versionedURL string) {
	t.SchemaURI = PropertyTypeMetaSchema
	t.Kind = "propertyType"
	t.ID = versionedURL
}

func (t *PropertyType) SchemaTitle() string { return t.Title }

// Validate checks the structure of a completed property type.
func (t *PropertyType) Validate() error {
	if t.Title == "" {
		return NewParamError(ErrBadRequest, "schema.title", "title is required")
	}
	if len(t.OneOf) == 0 {
		return NewParamError(ErrBadRequest, "schema.oneOf", "oneOf must contain at least one value")
	}
	for _, v := range t.OneOf {
		if err := v.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (v PropertyValues) validate() error {
	switch v.Type {
	case "":
		if v.Ref == "" {
			return NewParamError(ErrBadRequest, "schema.oneOf", "a value must be a data type $ref, an object or an array")
		}
	case "object":
		for key, ref := range v.Properties {
			target, err := ParseVersionedURL(ref.RefURL())
			if err != nil || target.BaseURL != key {
				return NewParamError(ErrBadRequest, "schema.oneOf", fmt.Sprintf("object property key %q must equal the base URL of its $ref", key))
			}
		}
	case "array":
		if v.Items == nil || len(v.Items.OneOf) == 0 {
			return NewParamError(ErrBadRequest, "schema.oneOf", "array values need items.oneOf")
		}
		for _, item := range v.Items.OneOf {
			if err := item.validate(); err != nil {
				return err
			}
		}
	default:
		return NewParamError(ErrBadRequest, "schema.oneOf", fmt.Sprintf("unsupported value type %q", v.Type))
	}
	return nil
}
