package spec

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
)

// Channel origins. A network channel is fetched from Studio (or a
// baseurl override), a disk channel from a local content directory.
const (
	OriginNetwork = "network"
	OriginDisk    = "disk"
)

// Flag is a channel option that may be supplied either as a bare
// boolean toggle or with a string value. The zero value is "not
// supplied", which is distinct from an empty string value.
type Flag struct {
	set  bool
	bare bool
	val  string
}

func BoolFlag() Flag {
	return Flag{set: true, bare: true}
}

func StringFlag(v string) Flag {
	return Flag{set: true, val: v}
}

func (f Flag) IsSet() bool {
	return f.set
}

// Bare reports whether the flag was supplied as a plain toggle with
// no value attached.
func (f Flag) Bare() bool {
	return f.set && f.bare
}

func (f Flag) Value() string {
	return f.val
}

func (f Flag) MarshalJSON() ([]byte, error) {
	switch {
	case !f.set:
		return []byte("null"), nil
	case f.bare:
		return json.Marshal(true)
	default:
		return json.Marshal(f.val)
	}
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = StringFlag(s)
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*f = BoolFlag()
		} else {
			*f = Flag{}
		}
		return nil
	}

	return errors.Errorf("flag value must be a string or a bool: %s", data)
}

// ChannelSpec identifies one importable Kolibri channel and the
// options forwarded to the management commands that import it.
type ChannelSpec struct {
	ChannelID      string   `json:"channel_id"`
	Origin         string   `json:"origin,omitempty"`
	Directory      string   `json:"directory,omitempty"`
	NodeIDs        []string `json:"node_ids,omitempty"`
	ExcludeNodeIDs []string `json:"exclude_node_ids,omitempty"`

	Baseurl Flag `json:"baseurl,omitempty"`
	PeerID  Flag `json:"peer_id,omitempty"`
	DriveID Flag `json:"drive_id,omitempty"`

	NoUpgrade           bool `json:"no_upgrade,omitempty"`
	IncludeUnrenderable bool `json:"include_unrenderable,omitempty"`

	// Skip exporting the channel database or the channel storage
	// files into the staging tree.
	NoDatabase bool `json:"no_database,omitempty"`
	NoStorage  bool `json:"no_storage,omitempty"`
}

// EffectiveOrigin returns the channel origin, defaulting to network
// when none was declared.
func (c ChannelSpec) EffectiveOrigin() string {
	if c.Origin == "" {
		return OriginNetwork
	}

	return c.Origin
}

func (c ChannelSpec) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ChannelID, validation.Required),
		validation.Field(&c.Origin, validation.In(OriginNetwork, OriginDisk)),
		validation.Field(&c.Directory,
			validation.Required.When(c.EffectiveOrigin() == OriginDisk)),
	)
}

// ExtensionSpec is the resolved configuration for one packaging run.
// It is built once from the catalog entry plus command line overrides
// and not mutated afterward.
type ExtensionSpec struct {
	ID       string        `json:"id,omitempty"`
	Branch   string        `json:"branch,omitempty"`
	Channels []ChannelSpec `json:"channels,omitempty"`

	// ExportPath is derived from the staging root and the id, never
	// read from the catalog.
	ExportPath string `json:"-"`

	Name          string            `json:"name,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	Description   string            `json:"description,omitempty"`
	License       string            `json:"license,omitempty"`
	Homepage      string            `json:"homepage,omitempty"`
	ProjectGroup  string            `json:"project_group,omitempty"`
	DeveloperName string            `json:"developer_name,omitempty"`
	Categories    []string          `json:"categories,omitempty"`
	Icon          string            `json:"icon,omitempty"`
	IconWidth     int               `json:"icon_width,omitempty"`
	IconHeight    int               `json:"icon_height,omitempty"`
	ContentRating map[string]string `json:"content_rating,omitempty"`
}

func (s ExtensionSpec) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Channels, validation.Required),
	)
	if err != nil {
		return err
	}

	for i, c := range s.Channels {
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "channel %d (%s)", i, c.ChannelID)
		}
	}

	return nil
}
