package editor

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// IDSource mints identifiers for new pages and hotspots. Ids must never
// repeat within a process.
type IDSource interface {
	PageID() string
	HotspotID() string
}

// ULIDSource mints lexically sortable ids such as "page_01j9...".
type ULIDSource struct{}

func (ULIDSource) PageID() string {
	return "page_" + newULID()
}

func (ULIDSource) HotspotID() string {
	return "hotspot_" + newULID()
}

// ulid.Make draws from a process-wide monotonic entropy source and is safe
// for concurrent use.
func newULID() string {
	return strings.ToLower(ulid.Make().String())
}
