// Package model defines the data types shared by the classification pipeline,
// its collaborators, and the command-line and HTTP surfaces.
package model

// VendorInput is the raw record describing a vendor. All fields are optional.
type VendorInput struct {
	WebsiteText string                   `json:"website_text,omitempty"`
	Description string                   `json:"description,omitempty"`
	Name        string                   `json:"name,omitempty"`
	ProductTags []string                 `json:"product_tags,omitempty"`
	Metadata    map[string]MetadataValue `json:"metadata,omitempty"`
}

// IsEmpty reports whether the input carries no text, tags, or metadata.
func (v VendorInput) IsEmpty() bool {
	return v.WebsiteText == "" && v.Description == "" && v.Name == "" &&
		len(v.ProductTags) == 0 && len(v.Metadata) == 0
}

// Product is an example product listed for a category, with optional aliases
// used when matching against website text.
type Product struct {
	Name    string   `json:"name" yaml:"name"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases"`
}
