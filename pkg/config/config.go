package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// Config locates the inputs and staging areas of a packaging run. All
// fields have working defaults; a config file or environment
// variables can override them for out of tree builds.
type Config struct {
	path string

	// StagingRoot holds one export tree per extension id.
	StagingRoot string `json:"staging-root"`

	// TemplatePath is the build manifest template; the filled
	// manifest is written beside it with the .in suffix stripped.
	TemplatePath string `json:"manifest-template"`

	// CatalogPath is the static catalog of extension presets.
	CatalogPath string `json:"catalog"`

	// KolibriHome is the private KOLIBRI_HOME used for imports.
	KolibriHome string `json:"kolibri-home"`
}

const (
	DefaultConfigPath   = "~/.config/kolibri-content/config.json"
	DefaultStagingRoot  = "exports"
	DefaultTemplatePath = "org.learningequality.Kolibri.Content.json.in"
	DefaultCatalogPath  = "catalog.json"
)

// HomeEnvOverride relocates the private Kolibri home without a config
// file.
const HomeEnvOverride = "KOLIBRI_CONTENT_HOME"

// LoadConfig reads the config file named by KOLIBRI_CONTENT_CONFIG,
// falling back to the default path when it exists, then to built-in
// defaults. Individual environment variables override file values.
func LoadConfig() (*Config, error) {
	if loc := os.Getenv("KOLIBRI_CONTENT_CONFIG"); loc != "" {
		return loadFile(loc)
	}

	path, err := homedir.Expand(DefaultConfigPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return loadFile(path)
	}

	cfg := &Config{
		path: path,

		StagingRoot:  DefaultStagingRoot,
		TemplatePath: DefaultTemplatePath,
		CatalogPath:  DefaultCatalogPath,
	}

	return updateFromEnv(cfg)
}

func loadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening config %s", path)
	}

	defer f.Close()

	var cfg Config

	err = json.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}

	cfg.path = path

	if cfg.StagingRoot == "" {
		cfg.StagingRoot = DefaultStagingRoot
	}

	if cfg.TemplatePath == "" {
		cfg.TemplatePath = DefaultTemplatePath
	}

	if cfg.CatalogPath == "" {
		cfg.CatalogPath = DefaultCatalogPath
	}

	return updateFromEnv(&cfg)
}

func updateFromEnv(cfg *Config) (*Config, error) {
	if v := os.Getenv("KOLIBRI_CONTENT_STAGING"); v != "" {
		cfg.StagingRoot = v
	}

	if v := os.Getenv("KOLIBRI_CONTENT_TEMPLATE"); v != "" {
		cfg.TemplatePath = v
	}

	if v := os.Getenv("KOLIBRI_CONTENT_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}

	if v := os.Getenv(HomeEnvOverride); v != "" {
		cfg.KolibriHome = v
	}

	for _, p := range []*string{
		&cfg.StagingRoot, &cfg.TemplatePath, &cfg.CatalogPath, &cfg.KolibriHome,
	} {
		if *p == "" {
			continue
		}

		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, err
		}

		*p = expanded
	}

	return cfg, nil
}

// Home returns the private Kolibri home directory, defaulting to a
// hidden directory under the staging root so a run never touches the
// user's real Kolibri data.
func (c *Config) Home() string {
	if c.KolibriHome != "" {
		return c.KolibriHome
	}

	return filepath.Join(c.StagingRoot, ".kolibri-home")
}
