package kolibri

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/learningequality/kolibri-content/pkg/progress"
	"github.com/learningequality/kolibri-content/pkg/spec"
)

// ContentManifestName is the manifest written into the export tree
// recording which channels it holds.
const ContentManifestName = "content.json"

// ContentManifest lists the channels that now live in the export
// directory, with any node filters that were applied.
type ContentManifest struct {
	Channels []ContentManifestChannel `json:"channels"`
}

type ContentManifestChannel struct {
	ChannelID      string   `json:"channel_id"`
	NodeIDs        []string `json:"node_ids,omitempty"`
	ExcludeNodeIDs []string `json:"exclude_node_ids,omitempty"`
}

// Importer runs the import/export sequence for every channel of a
// resolved specification, in list order, into the export path.
type Importer struct {
	common

	Runner     Runner
	ExportPath string
}

// Import rebuilds the export directory from scratch. The first
// failing channel aborts the run; earlier channels are not rolled
// back but no content manifest is written either.
func (i *Importer) Import(ctx context.Context, es *spec.ExtensionSpec) error {
	i.resetExportDir()

	bar := progress.Count(ctx, int64(len(es.Channels)), "importing channels")
	defer bar.Close()

	for _, ch := range es.Channels {
		bar.On(ch.ChannelID)

		if err := i.importChannel(ctx, ch); err != nil {
			return errors.Wrapf(err, "importing channel %q (origin %s)",
				ch.ChannelID, ch.EffectiveOrigin())
		}

		bar.Tick()
	}

	return i.writeContentManifest(es)
}

// resetExportDir clears out the previous run's tree. Removal is best
// effort; a stale tree surfaces later as an export failure instead.
func (i *Importer) resetExportDir() {
	if err := os.RemoveAll(i.ExportPath); err != nil {
		i.L().Warn("could not remove export directory", "path", i.ExportPath, "error", err)
	}

	if err := os.MkdirAll(i.ExportPath, 0755); err != nil {
		i.L().Warn("could not create export directory", "path", i.ExportPath, "error", err)
	}
}

func (i *Importer) importChannel(ctx context.Context, ch spec.ChannelSpec) error {
	err := i.Runner.Run(ctx, importChannelArgs(ch)...)
	if err != nil {
		return err
	}

	if !ch.NoDatabase {
		err = i.Runner.Run(ctx, "manage", "exportchannel", ch.ChannelID, i.ExportPath)
		if err != nil {
			return err
		}
	}

	if !ch.NoStorage {
		err = i.Runner.Run(ctx, importContentArgs(ch)...)
		if err != nil {
			return err
		}

		err = i.Runner.Run(ctx, exportContentArgs(ch, i.ExportPath)...)
		if err != nil {
			return err
		}
	}

	return nil
}

func importChannelArgs(ch spec.ChannelSpec) []string {
	args := []string{"manage", "importchannel"}

	args = appendFlag(args, "--baseurl", ch.Baseurl)
	if ch.NoUpgrade {
		args = append(args, "--no_upgrade")
	}

	args = append(args, ch.EffectiveOrigin(), ch.ChannelID)
	if ch.EffectiveOrigin() == spec.OriginDisk {
		args = append(args, ch.Directory)
	}

	return args
}

func importContentArgs(ch spec.ChannelSpec) []string {
	args := []string{"manage", "importcontent"}

	args = appendList(args, "--node_ids", ch.NodeIDs)
	args = appendList(args, "--exclude_node_ids", ch.ExcludeNodeIDs)
	if ch.IncludeUnrenderable {
		args = append(args, "--include_unrenderable")
	}
	args = appendFlag(args, "--baseurl", ch.Baseurl)
	args = appendFlag(args, "--peer_id", ch.PeerID)
	args = appendFlag(args, "--drive_id", ch.DriveID)

	args = append(args, ch.EffectiveOrigin(), ch.ChannelID)
	if ch.EffectiveOrigin() == spec.OriginDisk {
		args = append(args, ch.Directory)
	}

	return args
}

func exportContentArgs(ch spec.ChannelSpec, exportPath string) []string {
	args := []string{"manage", "exportcontent"}

	args = appendList(args, "--node_ids", ch.NodeIDs)
	args = appendList(args, "--exclude_node_ids", ch.ExcludeNodeIDs)

	return append(args, ch.ChannelID, exportPath)
}

// appendFlag translates a channel option into external flag syntax: a
// bare option becomes a bare flag, a valued one becomes "--flag value".
func appendFlag(args []string, flag string, f spec.Flag) []string {
	switch {
	case !f.IsSet():
		return args
	case f.Bare():
		return append(args, flag)
	default:
		return append(args, flag, f.Value())
	}
}

func appendList(args []string, flag string, vals []string) []string {
	if len(vals) == 0 {
		return args
	}

	return append(args, flag, strings.Join(vals, ","))
}

func (i *Importer) writeContentManifest(es *spec.ExtensionSpec) error {
	var cm ContentManifest

	for _, ch := range es.Channels {
		cm.Channels = append(cm.Channels, ContentManifestChannel{
			ChannelID:      ch.ChannelID,
			NodeIDs:        ch.NodeIDs,
			ExcludeNodeIDs: ch.ExcludeNodeIDs,
		})
	}

	dir := filepath.Join(i.ExportPath, "content")

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrapf(err, "creating content directory %s", dir)
	}

	data, err := json.MarshalIndent(&cm, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(dir, ContentManifestName)

	i.L().Info("writing content manifest", "path", path, "channels", len(cm.Channels))

	err = ioutil.WriteFile(path, append(data, '\n'), 0644)
	if err != nil {
		return errors.Wrapf(err, "writing content manifest %s", path)
	}

	return nil
}
