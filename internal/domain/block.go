package domain

// BlockMetadata is the block-metadata.json a block author publishes with
// their block.
type BlockMetadata struct {
	Name          string            `json:"name"`
	DisplayName   string            `json:"displayName,omitempty"`
	Version       string            `json:"version"`
	Description   string            `json:"description,omitempty"`
	Author        string            `json:"author,omitempty"`
	License       string            `json:"license,omitempty"`
	BlockType     map[string]string `json:"blockType,omitempty"`
	Protocol      string            `json:"protocol,omitempty"`
	Source        string            `json:"source,omitempty"`
	Icon          string            `json:"icon,omitempty"`
	Image         string            `json:"image,omitempty"`
	Schema        string            `json:"schema,omitempty"`
	Variants      []BlockVariant    `json:"variants,omitempty"`
	PackagePath   string            `json:"packagePath"`
	ComponentPath string            `json:"componentPath,omitempty"`
}

type BlockVariant struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}
