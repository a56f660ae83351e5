package metainfo

import (
	"encoding/xml"
	"io/ioutil"
	"sort"

	"github.com/pkg/errors"

	"github.com/learningequality/kolibri-content/pkg/spec"
)

// Defaults for descriptive fields the specification leaves unset.
// Name, summary, description, icon and content rating have no
// defaults and are omitted entirely when unsupplied.
const (
	DefaultLicense       = "CC-BY-4.0"
	DefaultHomepage      = "https://learningequality.org/kolibri/"
	DefaultProjectGroup  = "Learning Equality"
	DefaultDeveloperName = "Learning Equality"
	DefaultCategory      = "Education"

	// MetadataLicense covers the metainfo document itself, not the
	// packaged content.
	MetadataLicense = "CC0-1.0"

	// RatingScheme is the AppStream content rating system identifier.
	RatingScheme = "oars-1.1"
)

// Component is the root of the AppStream metainfo document for a
// content extension.
type Component struct {
	XMLName xml.Name `xml:"component"`
	Type    string   `xml:"type,attr"`

	ID      string `xml:"id"`
	Extends string `xml:"extends"`

	Name    string `xml:"name,omitempty"`
	Summary string `xml:"summary,omitempty"`

	MetadataLicense string `xml:"metadata_license"`
	ProjectLicense  string `xml:"project_license"`

	Description *Description `xml:"description,omitempty"`
	Icon        *Icon        `xml:"icon,omitempty"`

	Categories Categories `xml:"categories"`
	URL        URL        `xml:"url"`

	ProjectGroup  string `xml:"project_group"`
	DeveloperName string `xml:"developer_name"`

	ContentRating *ContentRating `xml:"content_rating,omitempty"`
}

type Description struct {
	P string `xml:"p"`
}

type Icon struct {
	Type   string `xml:"type,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
	Path   string `xml:",chardata"`
}

type Categories struct {
	Category []string `xml:"category"`
}

type URL struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type ContentRating struct {
	Type       string             `xml:"type,attr"`
	Attributes []ContentAttribute `xml:"content_attribute"`
}

type ContentAttribute struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

// Build assembles the metainfo component for the given resolved
// specification. pkgID is the fully qualified package identifier read
// back from the generated manifest, and extends the runtime it is an
// add-on for.
func Build(es *spec.ExtensionSpec, pkgID, extends string) *Component {
	c := &Component{
		Type:            "addon",
		ID:              pkgID,
		Extends:         extends,
		Name:            es.Name,
		Summary:         es.Summary,
		MetadataLicense: MetadataLicense,
		ProjectLicense:  pick(es.License, DefaultLicense),
		ProjectGroup:    pick(es.ProjectGroup, DefaultProjectGroup),
		DeveloperName:   pick(es.DeveloperName, DefaultDeveloperName),
		URL: URL{
			Type:  "homepage",
			Value: pick(es.Homepage, DefaultHomepage),
		},
	}

	if es.Description != "" {
		c.Description = &Description{P: es.Description}
	}

	if es.Icon != "" {
		c.Icon = &Icon{
			Type:   "local",
			Width:  es.IconWidth,
			Height: es.IconHeight,
			Path:   es.Icon,
		}
	}

	cats := es.Categories
	if len(cats) == 0 {
		cats = []string{DefaultCategory}
	}
	c.Categories = Categories{Category: cats}

	if len(es.ContentRating) > 0 {
		c.ContentRating = buildRating(es.ContentRating)
	}

	return c
}

func buildRating(attrs map[string]string) *ContentRating {
	ids := make([]string, 0, len(attrs))
	for id := range attrs {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	cr := &ContentRating{Type: RatingScheme}

	for _, id := range ids {
		cr.Attributes = append(cr.Attributes, ContentAttribute{
			ID:    id,
			Value: attrs[id],
		})
	}

	return cr
}

// Write serializes the component as a pretty printed UTF-8 document.
func Write(c *Component, path string) error {
	body, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "serializing metainfo")
	}

	doc := append([]byte(xml.Header), body...)
	doc = append(doc, '\n')

	err = ioutil.WriteFile(path, doc, 0644)
	if err != nil {
		return errors.Wrapf(err, "writing metainfo %s", path)
	}

	return nil
}

func pick(val, def string) string {
	if val != "" {
		return val
	}

	return def
}
