package kolibri

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningequality/kolibri-content/pkg/spec"
)

type recordingRunner struct {
	calls  [][]string
	failOn string
}

func (r *recordingRunner) Run(ctx context.Context, args ...string) error {
	r.calls = append(r.calls, args)

	if r.failOn != "" && args[1] == r.failOn {
		return errors.Errorf("%s exited with status 1", r.failOn)
	}

	return nil
}

func (r *recordingRunner) subcommands() []string {
	var subs []string
	for _, c := range r.calls {
		subs = append(subs, c[1])
	}

	return subs
}

func newImporter(t *testing.T, rr *recordingRunner) (*Importer, string) {
	t.Helper()

	dir, err := ioutil.TempDir("", "importer")
	require.NoError(t, err)

	t.Cleanup(func() { os.RemoveAll(dir) })

	exportPath := filepath.Join(dir, "exports", "X")

	return &Importer{Runner: rr, ExportPath: exportPath}, exportPath
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("full sequence for a plain network channel", func(t *testing.T) {
		rr := &recordingRunner{}
		imp, exportPath := newImporter(t, rr)

		es := &spec.ExtensionSpec{
			ID:       "X",
			Channels: []spec.ChannelSpec{{ChannelID: "C1"}},
		}

		require.NoError(t, imp.Import(ctx, es))

		assert.Equal(t, []string{
			"importchannel", "exportchannel", "importcontent", "exportcontent",
		}, rr.subcommands())

		assert.Equal(t,
			[]string{"manage", "importchannel", "network", "C1"},
			rr.calls[0])
		assert.Equal(t,
			[]string{"manage", "exportchannel", "C1", exportPath},
			rr.calls[1])
		assert.Equal(t,
			[]string{"manage", "importcontent", "network", "C1"},
			rr.calls[2])
		assert.Equal(t,
			[]string{"manage", "exportcontent", "C1", exportPath},
			rr.calls[3])
	})

	t.Run("no_database skips export, storage steps still run in order", func(t *testing.T) {
		rr := &recordingRunner{}
		imp, _ := newImporter(t, rr)

		es := &spec.ExtensionSpec{
			ID:       "X",
			Channels: []spec.ChannelSpec{{ChannelID: "C1", NoDatabase: true}},
		}

		require.NoError(t, imp.Import(ctx, es))

		assert.Equal(t, []string{
			"importchannel", "importcontent", "exportcontent",
		}, rr.subcommands())
	})

	t.Run("no_storage skips content import and export", func(t *testing.T) {
		rr := &recordingRunner{}
		imp, _ := newImporter(t, rr)

		es := &spec.ExtensionSpec{
			ID:       "X",
			Channels: []spec.ChannelSpec{{ChannelID: "C1", NoStorage: true}},
		}

		require.NoError(t, imp.Import(ctx, es))

		assert.Equal(t, []string{"importchannel", "exportchannel"}, rr.subcommands())
	})

	t.Run("disk channels pass the source directory positionally", func(t *testing.T) {
		rr := &recordingRunner{}
		imp, _ := newImporter(t, rr)

		es := &spec.ExtensionSpec{
			ID: "X",
			Channels: []spec.ChannelSpec{{
				ChannelID: "C1",
				Origin:    spec.OriginDisk,
				Directory: "/srv/content",
			}},
		}

		require.NoError(t, imp.Import(ctx, es))

		assert.Equal(t,
			[]string{"manage", "importchannel", "disk", "C1", "/srv/content"},
			rr.calls[0])
		assert.Equal(t,
			[]string{"manage", "importcontent", "disk", "C1", "/srv/content"},
			rr.calls[2])
	})

	t.Run("flags translate to external syntax", func(t *testing.T) {
		rr := &recordingRunner{}
		imp, _ := newImporter(t, rr)

		es := &spec.ExtensionSpec{
			ID: "X",
			Channels: []spec.ChannelSpec{{
				ChannelID:           "C1",
				NodeIDs:             []string{"1", "2", "3"},
				ExcludeNodeIDs:      []string{"9"},
				Baseurl:             spec.StringFlag("https://studio.example.org"),
				PeerID:              spec.BoolFlag(),
				NoUpgrade:           true,
				IncludeUnrenderable: true,
			}},
		}

		require.NoError(t, imp.Import(ctx, es))

		assert.Equal(t, []string{
			"manage", "importchannel",
			"--baseurl", "https://studio.example.org",
			"--no_upgrade",
			"network", "C1",
		}, rr.calls[0])

		assert.Equal(t, []string{
			"manage", "importcontent",
			"--node_ids", "1,2,3",
			"--exclude_node_ids", "9",
			"--include_unrenderable",
			"--baseurl", "https://studio.example.org",
			"--peer_id",
			"network", "C1",
		}, rr.calls[2])

		assert.Equal(t, []string{
			"manage", "exportcontent",
			"--node_ids", "1,2,3",
			"--exclude_node_ids", "9",
			"C1", imp.ExportPath,
		}, rr.calls[3])
	})

	t.Run("writes the content manifest after all channels", func(t *testing.T) {
		rr := &recordingRunner{}
		imp, exportPath := newImporter(t, rr)

		es := &spec.ExtensionSpec{
			ID: "X",
			Channels: []spec.ChannelSpec{
				{ChannelID: "C1", NodeIDs: []string{"1", "2"}},
				{ChannelID: "C2"},
			},
		}

		require.NoError(t, imp.Import(ctx, es))

		data, err := ioutil.ReadFile(filepath.Join(exportPath, "content", ContentManifestName))
		require.NoError(t, err)

		var cm ContentManifest
		require.NoError(t, json.Unmarshal(data, &cm))

		require.Len(t, cm.Channels, 2)
		assert.Equal(t, "C1", cm.Channels[0].ChannelID)
		assert.Equal(t, []string{"1", "2"}, cm.Channels[0].NodeIDs)
		assert.Equal(t, "C2", cm.Channels[1].ChannelID)
		assert.Empty(t, cm.Channels[1].NodeIDs)
	})

	t.Run("first failure aborts the run and names the channel", func(t *testing.T) {
		rr := &recordingRunner{failOn: "exportchannel"}
		imp, exportPath := newImporter(t, rr)

		es := &spec.ExtensionSpec{
			ID: "X",
			Channels: []spec.ChannelSpec{
				{ChannelID: "C1"},
				{ChannelID: "C2"},
			},
		}

		err := imp.Import(ctx, es)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"C1"`)

		// C2 never started, no manifest written
		assert.Equal(t, []string{"importchannel", "exportchannel"}, rr.subcommands())

		_, serr := os.Stat(filepath.Join(exportPath, "content", ContentManifestName))
		assert.True(t, os.IsNotExist(serr))
	})

	t.Run("rebuilds the export directory", func(t *testing.T) {
		rr := &recordingRunner{}
		imp, exportPath := newImporter(t, rr)

		stale := filepath.Join(exportPath, "stale.sqlite3")
		require.NoError(t, os.MkdirAll(exportPath, 0755))
		require.NoError(t, ioutil.WriteFile(stale, []byte("old"), 0644))

		es := &spec.ExtensionSpec{
			ID:       "X",
			Channels: []spec.ChannelSpec{{ChannelID: "C1"}},
		}

		require.NoError(t, imp.Import(ctx, es))

		_, serr := os.Stat(stale)
		assert.True(t, os.IsNotExist(serr))
	})
}
