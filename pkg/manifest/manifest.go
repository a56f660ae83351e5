package manifest

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/learningequality/kolibri-content/pkg/spec"
)

// BaseID is the package identifier all content extensions hang off
// of; the resolved extension id is appended to it.
const BaseID = "org.learningequality.Kolibri.Content"

// BaseRuntime is the application the extension content is served by;
// the generated manifest names it as its runtime.
const BaseRuntime = "org.learningequality.Kolibri"

// TemplateSuffix is stripped from the template path to produce the
// output path.
const TemplateSuffix = ".in"

// Manifest is the filled build manifest read back after templating.
// It is the source of truth for the fully qualified package id and
// the runtime the external Kolibri is run from.
type Manifest struct {
	ID             string `json:"id"`
	Branch         string `json:"branch"`
	Runtime        string `json:"runtime"`
	RuntimeVersion string `json:"runtime-version"`
}

// Generator fills the build manifest template with resolved values.
type Generator struct {
	TemplatePath string

	logger hclog.Logger
}

func (g *Generator) L() hclog.Logger {
	if g.logger != nil {
		return g.logger
	}

	g.logger = hclog.L()

	return g.logger
}

func (g *Generator) SetLogger(logger hclog.Logger) {
	g.logger = logger
}

// OutputPath is the template path with the template suffix stripped.
func (g *Generator) OutputPath() string {
	return strings.TrimSuffix(g.TemplatePath, TemplateSuffix)
}

// FullID appends the extension id to the base package identifier.
func FullID(id string) string {
	return BaseID + "." + id
}

// Generate substitutes @ID@, @BRANCH@ and @EXPORT_PATH@ in the
// template, writes the result beside the template and parses the
// written document back.
//
// The export path is written relative to the manifest's own
// directory, since the packaging build resolves sources relative to
// the manifest.
func (g *Generator) Generate(es *spec.ExtensionSpec) (*Manifest, error) {
	tmpl, err := ioutil.ReadFile(g.TemplatePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest template %s", g.TemplatePath)
	}

	out := g.OutputPath()

	rel, err := relExportPath(out, es.ExportPath)
	if err != nil {
		return nil, err
	}

	filled := strings.NewReplacer(
		"@ID@", FullID(es.ID),
		"@BRANCH@", es.Branch,
		"@EXPORT_PATH@", rel,
	).Replace(string(tmpl))

	g.L().Info("writing build manifest", "path", out, "id", FullID(es.ID))

	err = ioutil.WriteFile(out, []byte(filled), 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "writing manifest %s", out)
	}

	var m Manifest

	err = json.Unmarshal([]byte(filled), &m)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing generated manifest %s", out)
	}

	return &m, nil
}

func relExportPath(manifestPath, exportPath string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(exportPath)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return "", errors.Wrapf(err, "relativizing export path %s", exportPath)
	}

	return rel, nil
}
