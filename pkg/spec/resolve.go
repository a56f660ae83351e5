package spec

import (
	"path/filepath"
)

// DefaultBranch is used when neither the command line nor the catalog
// names a branch.
const DefaultBranch = "1.0"

// Overrides carries the command line supplied fields. Empty strings,
// nil slices and nil maps mean "not supplied", so a catalog value can
// still win for that field.
type Overrides struct {
	Branch   string
	Channels []ChannelSpec

	Name          string
	Summary       string
	Description   string
	License       string
	Homepage      string
	ProjectGroup  string
	DeveloperName string
	Categories    []string
	Icon          string
	IconWidth     int
	IconHeight    int
	ContentRating map[string]string
}

// Resolver merges catalog entries with command line overrides into
// validated extension specifications.
type Resolver struct {
	Catalog     Catalog
	StagingRoot string
}

// Resolve builds the specification for id. Scalar overrides win over
// catalog values; channel lists concatenate with the override
// channels first; a content rating override replaces the catalog map
// wholesale. The result is validated before being returned.
func (r *Resolver) Resolve(id string, o Overrides) (*ExtensionSpec, error) {
	s := r.Catalog[id]
	s.ID = id

	if o.Branch != "" {
		s.Branch = o.Branch
	}
	if s.Branch == "" {
		s.Branch = DefaultBranch
	}

	if len(o.Channels) > 0 {
		s.Channels = append(append([]ChannelSpec{}, o.Channels...), s.Channels...)
	}

	if o.Name != "" {
		s.Name = o.Name
	}
	if o.Summary != "" {
		s.Summary = o.Summary
	}
	if o.Description != "" {
		s.Description = o.Description
	}
	if o.License != "" {
		s.License = o.License
	}
	if o.Homepage != "" {
		s.Homepage = o.Homepage
	}
	if o.ProjectGroup != "" {
		s.ProjectGroup = o.ProjectGroup
	}
	if o.DeveloperName != "" {
		s.DeveloperName = o.DeveloperName
	}
	if len(o.Categories) > 0 {
		s.Categories = o.Categories
	}
	if o.Icon != "" {
		s.Icon = o.Icon
	}
	if o.IconWidth != 0 {
		s.IconWidth = o.IconWidth
	}
	if o.IconHeight != 0 {
		s.IconHeight = o.IconHeight
	}
	if o.ContentRating != nil {
		s.ContentRating = o.ContentRating
	}

	s.ExportPath = filepath.Join(r.StagingRoot, id)

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}
