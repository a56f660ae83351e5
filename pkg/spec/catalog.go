package spec

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Catalog maps extension ids to partial specifications used as
// defaults when resolving. It is loaded from a static file and never
// written back.
type Catalog map[string]ExtensionSpec

// LoadCatalog reads a catalog file. A missing file is treated as an
// empty catalog so the tool works from command line input alone.
func LoadCatalog(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Catalog{}, nil
		}

		return nil, errors.Wrapf(err, "opening catalog %s", path)
	}

	defer f.Close()

	var cat Catalog

	err = json.NewDecoder(f).Decode(&cat)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding catalog %s", path)
	}

	return cat, nil
}
