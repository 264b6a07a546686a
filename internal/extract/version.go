package extract

import (
	"errors"

	"github.com/tidwall/gjson"
)

// Version is the configuration shape of an app.json document.
type Version int

const (
	// Unversioned documents carry none of the known marker bundles
	Unversioned Version = iota
	// V3 documents configure the "map" bundle
	V3
	// V4 documents configure the "map-init" bundle
	V4
)

// ErrUnversioned is reported when a document matches no known shape.
var ErrUnversioned = errors.New("unversioned map configuration")

// String returns the tag name of v.
func (v Version) String() string {
	switch v {
	case V3:
		return "V3"
	case V4:
		return "V4"
	default:
		return "UNVERSIONED"
	}
}

// Number returns 3 or 4, or nil for Unversioned, as stored in the version column.
func (v Version) Number() any {
	switch v {
	case V3:
		return 3
	case V4:
		return 4
	default:
		return nil
	}
}

// ResolveVersion inspects the marker bundles of an app.json root object.
// "map" wins over "map-init" when both are configured.
func ResolveVersion(root gjson.Result) Version {
	bundles := root.Get("bundles")
	switch {
	case bundles.Get("map").Exists():
		return V3
	case bundles.Get("map-init").Exists():
		return V4
	default:
		return Unversioned
	}
}
