package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/pkg/errors"

	"github.com/learningequality/kolibri-content/pkg/cmd"
	"github.com/learningequality/kolibri-content/pkg/config"
	"github.com/learningequality/kolibri-content/pkg/kolibri"
	"github.com/learningequality/kolibri-content/pkg/manifest"
	"github.com/learningequality/kolibri-content/pkg/metainfo"
	"github.com/learningequality/kolibri-content/pkg/spec"
)

func main() {
	c := cli.NewCLI("kolibri-content", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"build": func() (cli.Command, error) {
			return cmd.New(
				"build",
				"Generate packaging manifests and stage the channel content",
				buildF,
			), nil
		},
		"resolve": func() (cli.Command, error) {
			return cmd.New(
				"resolve",
				"Resolve and validate a specification without building",
				resolveF,
			), nil
		},
		"catalog": func() (cli.Command, error) {
			return cmd.New(
				"catalog",
				"List the extension presets in the catalog",
				catalogF,
			), nil
		},
		"check": func() (cli.Command, error) {
			return cmd.New(
				"check",
				"Verify the Kolibri application is installed",
				checkF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}

type specOptions struct {
	ID       string   `long:"id" description:"Extension id, appended to the base package identifier" required:"true"`
	Branch   string   `long:"branch" description:"Extension branch (default 1.0)"`
	Channels []string `long:"channel" description:"Channel spec, eg. channel_id=abc:node_ids=1,2,3 (repeatable)"`
	Catalog  string   `long:"catalog" description:"Override the catalog file path"`

	Name          string   `long:"name" description:"Display name"`
	Summary       string   `long:"summary" description:"One line summary"`
	Description   string   `long:"description" description:"Long description"`
	License       string   `long:"license" description:"Content license (SPDX)"`
	Homepage      string   `long:"homepage" description:"Homepage URL"`
	ProjectGroup  string   `long:"project-group" description:"Project group"`
	DeveloperName string   `long:"developer-name" description:"Developer name"`
	Categories    []string `long:"category" description:"AppStream category (repeatable)"`
	Icon          string   `long:"icon" description:"Icon path"`
	IconWidth     int      `long:"icon-width" description:"Icon width in pixels"`
	IconHeight    int      `long:"icon-height" description:"Icon height in pixels"`
	Ratings       []string `long:"content-rating" description:"Content rating, attribute=value (repeatable)"`

	Verbose bool `long:"verbose" short:"v" description:"Log informational messages"`
}

type buildOptions struct {
	specOptions

	NoImport bool `long:"no-import" description:"Only generate manifests, keep the existing export tree"`
}

func buildF(ctx context.Context, opts buildOptions) error {
	logger := newLogger(opts.Verbose)

	cfg, rs, err := resolveSpec(opts.specOptions)
	if err != nil {
		return err
	}

	mg := &manifest.Generator{TemplatePath: cfg.TemplatePath}
	mg.SetLogger(logger)

	mf, err := mg.Generate(rs)
	if err != nil {
		return err
	}

	err = writeMetainfo(logger, mg, mf, rs)
	if err != nil {
		return err
	}

	if opts.NoImport {
		logger.Info("skipping import", "export-path", rs.ExportPath)
		return nil
	}

	runner := &kolibri.FlatpakRunner{Ref: mf.Runtime, Home: cfg.Home()}
	runner.SetLogger(logger)

	if err := runner.Check(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Kolibri is not installed. To install it, run:\n\n  %s\n\n", kolibri.InstallHint)
		return err
	}

	imp := &kolibri.Importer{Runner: runner, ExportPath: rs.ExportPath}
	imp.SetLogger(logger)

	return imp.Import(ctx, rs)
}

func resolveF(ctx context.Context, opts specOptions) error {
	_, rs, err := resolveSpec(opts)
	if err != nil {
		return err
	}

	spew.Dump(rs)

	return nil
}

type catalogOptions struct {
	Catalog string `long:"catalog" description:"Override the catalog file path"`
	Verbose bool   `long:"verbose" short:"v" description:"Log informational messages"`
}

func catalogF(ctx context.Context, opts catalogOptions) error {
	newLogger(opts.Verbose)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	path := cfg.CatalogPath
	if opts.Catalog != "" {
		path = opts.Catalog
	}

	cat, err := spec.LoadCatalog(path)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(cat))
	for id := range cat {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		fmt.Printf("%s\t%d channel(s)\n", id, len(cat[id].Channels))
	}

	return nil
}

type checkOptions struct {
	Verbose bool `long:"verbose" short:"v" description:"Log informational messages"`
}

func checkF(ctx context.Context, opts checkOptions) error {
	logger := newLogger(opts.Verbose)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	runner := &kolibri.FlatpakRunner{Ref: manifest.BaseRuntime, Home: cfg.Home()}
	runner.SetLogger(logger)

	if err := runner.Check(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Kolibri is not installed. To install it, run:\n\n  %s\n\n", kolibri.InstallHint)
		return err
	}

	fmt.Println("Kolibri is installed")

	return nil
}

func resolveSpec(opts specOptions) (*config.Config, *spec.ExtensionSpec, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	if opts.Catalog != "" {
		cfg.CatalogPath = opts.Catalog
	}

	cat, err := spec.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	o, err := overridesFrom(opts)
	if err != nil {
		return nil, nil, err
	}

	resolver := &spec.Resolver{Catalog: cat, StagingRoot: cfg.StagingRoot}

	rs, err := resolver.Resolve(opts.ID, o)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid specification for %q", opts.ID)
	}

	return cfg, rs, nil
}

func overridesFrom(opts specOptions) (spec.Overrides, error) {
	o := spec.Overrides{
		Branch:        opts.Branch,
		Name:          opts.Name,
		Summary:       opts.Summary,
		Description:   opts.Description,
		License:       opts.License,
		Homepage:      opts.Homepage,
		ProjectGroup:  opts.ProjectGroup,
		DeveloperName: opts.DeveloperName,
		Categories:    opts.Categories,
		Icon:          opts.Icon,
		IconWidth:     opts.IconWidth,
		IconHeight:    opts.IconHeight,
	}

	for _, enc := range opts.Channels {
		ch, err := spec.ParseChannel(enc)
		if err != nil {
			return o, err
		}

		o.Channels = append(o.Channels, ch)
	}

	if len(opts.Ratings) > 0 {
		o.ContentRating = map[string]string{}

		for _, enc := range opts.Ratings {
			attr, val, err := spec.ParseRating(enc)
			if err != nil {
				return o, err
			}

			o.ContentRating[attr] = val
		}
	}

	return o, nil
}

func writeMetainfo(logger hclog.Logger, mg *manifest.Generator, mf *manifest.Manifest, rs *spec.ExtensionSpec) error {
	comp := metainfo.Build(rs, mf.ID, mf.Runtime)

	path := filepath.Join(filepath.Dir(mg.OutputPath()), mf.ID+".metainfo.xml")

	logger.Info("writing metainfo", "path", path)

	return metainfo.Write(comp, path)
}

func newLogger(verbose bool) hclog.Logger {
	level := hclog.Warn
	if verbose {
		level = hclog.Info
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "kolibri-content",
		Level: level,
	})

	hclog.SetDefault(logger)

	return logger
}
