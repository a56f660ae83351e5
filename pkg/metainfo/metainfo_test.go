package metainfo

import (
	"encoding/xml"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningequality/kolibri-content/pkg/spec"
)

func TestBuild(t *testing.T) {
	pkgID := "org.learningequality.Kolibri.Content.X"
	extends := "org.learningequality.Kolibri"

	t.Run("fills defaults when nothing is supplied", func(t *testing.T) {
		c := Build(&spec.ExtensionSpec{ID: "X"}, pkgID, extends)

		assert.Equal(t, "addon", c.Type)
		assert.Equal(t, pkgID, c.ID)
		assert.Equal(t, extends, c.Extends)
		assert.Equal(t, DefaultLicense, c.ProjectLicense)
		assert.Equal(t, DefaultHomepage, c.URL.Value)
		assert.Equal(t, "homepage", c.URL.Type)
		assert.Equal(t, DefaultProjectGroup, c.ProjectGroup)
		assert.Equal(t, DefaultDeveloperName, c.DeveloperName)
		assert.Equal(t, []string{DefaultCategory}, c.Categories.Category)

		assert.Empty(t, c.Name)
		assert.Empty(t, c.Summary)
		assert.Nil(t, c.Description)
		assert.Nil(t, c.Icon)
		assert.Nil(t, c.ContentRating)
	})

	t.Run("supplied fields win over defaults", func(t *testing.T) {
		c := Build(&spec.ExtensionSpec{
			ID:            "X",
			Name:          "Khan Academy",
			Summary:       "Lessons and exercises",
			Description:   "A full curriculum.",
			License:       "CC-BY-NC-SA-4.0",
			Homepage:      "https://khanacademy.org",
			ProjectGroup:  "Khan",
			DeveloperName: "Khan Academy",
			Categories:    []string{"Education", "Science"},
		}, pkgID, extends)

		assert.Equal(t, "Khan Academy", c.Name)
		assert.Equal(t, "CC-BY-NC-SA-4.0", c.ProjectLicense)
		assert.Equal(t, "https://khanacademy.org", c.URL.Value)
		assert.Equal(t, []string{"Education", "Science"}, c.Categories.Category)
		require.NotNil(t, c.Description)
		assert.Equal(t, "A full curriculum.", c.Description.P)
	})

	t.Run("icon carries declared pixel dimensions", func(t *testing.T) {
		c := Build(&spec.ExtensionSpec{
			ID:         "X",
			Icon:       "icon.png",
			IconWidth:  128,
			IconHeight: 128,
		}, pkgID, extends)

		require.NotNil(t, c.Icon)
		assert.Equal(t, "icon.png", c.Icon.Path)
		assert.Equal(t, 128, c.Icon.Width)
		assert.Equal(t, 128, c.Icon.Height)
	})

	t.Run("single rating attribute yields one content_attribute", func(t *testing.T) {
		c := Build(&spec.ExtensionSpec{
			ID:            "X",
			ContentRating: map[string]string{"violence-cartoon": "mild"},
		}, pkgID, extends)

		require.NotNil(t, c.ContentRating)
		assert.Equal(t, RatingScheme, c.ContentRating.Type)
		require.Len(t, c.ContentRating.Attributes, 1)
		assert.Equal(t, "violence-cartoon", c.ContentRating.Attributes[0].ID)
		assert.Equal(t, "mild", c.ContentRating.Attributes[0].Value)
	})

	t.Run("rating attributes are emitted in stable order", func(t *testing.T) {
		c := Build(&spec.ExtensionSpec{
			ID: "X",
			ContentRating: map[string]string{
				"violence-cartoon": "mild",
				"language-humor":   "none",
			},
		}, pkgID, extends)

		require.Len(t, c.ContentRating.Attributes, 2)
		assert.Equal(t, "language-humor", c.ContentRating.Attributes[0].ID)
		assert.Equal(t, "violence-cartoon", c.ContentRating.Attributes[1].ID)
	})
}

func TestWrite(t *testing.T) {
	dir, err := ioutil.TempDir("", "metainfo")
	require.NoError(t, err)

	defer os.RemoveAll(dir)

	c := Build(&spec.ExtensionSpec{
		ID:            "X",
		Name:          "Khan Academy",
		ContentRating: map[string]string{"violence-cartoon": "mild"},
	}, "org.learningequality.Kolibri.Content.X", "org.learningequality.Kolibri")

	path := filepath.Join(dir, "org.learningequality.Kolibri.Content.X.metainfo.xml")
	require.NoError(t, Write(c, path))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)

	doc := string(data)

	assert.True(t, strings.HasPrefix(doc, xml.Header))
	assert.Contains(t, doc, `<component type="addon">`)
	assert.Contains(t, doc, "<id>org.learningequality.Kolibri.Content.X</id>")
	assert.Contains(t, doc, `<content_rating type="oars-1.1">`)
	assert.Contains(t, doc, `<content_attribute id="violence-cartoon">mild</content_attribute>`)

	// pretty printed, not a single line
	assert.Contains(t, doc, "\n  <id>")

	var parsed Component
	require.NoError(t, xml.Unmarshal(data, &parsed))
	assert.Equal(t, "Khan Academy", parsed.Name)
}
