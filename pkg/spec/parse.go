package spec

import (
	"strings"

	"github.com/pkg/errors"
)

// BoolSentinel is the value that marks a compactly encoded option as
// a bare boolean toggle, eg. "baseurl=-".
const BoolSentinel = "-"

// ParseChannel decodes the compact channel encoding used on the
// command line: key=value pairs joined by colons, with list values
// comma separated and BoolSentinel meaning "true".
//
//	channel_id=abc:node_ids=1,2,3:baseurl=-
func ParseChannel(enc string) (ChannelSpec, error) {
	var c ChannelSpec

	if enc == "" {
		return c, errors.New("empty channel spec")
	}

	for _, part := range strings.Split(enc, ":") {
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			return c, errors.Errorf("malformed channel option %q, expected key=value", part)
		}

		key, val := part[:eq], part[eq+1:]
		bare := val == BoolSentinel

		switch key {
		case "channel_id":
			c.ChannelID = val
		case "origin":
			c.Origin = val
		case "directory":
			c.Directory = val
		case "node_ids":
			c.NodeIDs = splitList(val)
		case "exclude_node_ids":
			c.ExcludeNodeIDs = splitList(val)
		case "baseurl":
			c.Baseurl = parseFlag(val)
		case "peer_id":
			c.PeerID = parseFlag(val)
		case "drive_id":
			c.DriveID = parseFlag(val)
		case "no_upgrade":
			c.NoUpgrade = bare || val == "true"
		case "include_unrenderable":
			c.IncludeUnrenderable = bare || val == "true"
		case "no_database":
			c.NoDatabase = bare || val == "true"
		case "no_storage":
			c.NoStorage = bare || val == "true"
		default:
			return c, errors.Errorf("unknown channel option %q", key)
		}
	}

	return c, nil
}

// ParseRating decodes one content rating override of the form
// "attribute=value".
func ParseRating(enc string) (string, string, error) {
	eq := strings.IndexByte(enc, '=')
	if eq < 0 {
		return "", "", errors.Errorf("malformed content rating %q, expected attribute=value", enc)
	}

	return enc[:eq], enc[eq+1:], nil
}

func parseFlag(val string) Flag {
	if val == BoolSentinel {
		return BoolFlag()
	}

	return StringFlag(val)
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}

	return strings.Split(val, ",")
}
