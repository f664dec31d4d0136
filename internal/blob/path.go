package blob

import (
	"slices"
	"strings"
)

// ParseObjectKey normalizes a client supplied blob path into an object
// key. Clients routinely send full URIs ("s3://bucket/hr/doc.pdf") or
// bucket-prefixed paths; the configured bucket always wins, so a
// leading segment is kept only when it names a known sector.
func ParseObjectKey(blobPath string, sectors []string) string {
	p := blobPath
	if _, rest, ok := strings.Cut(p, "://"); ok {
		p = rest
	}

	first, rest, found := strings.Cut(p, "/")
	if !found {
		return p
	}
	if slices.Contains(sectors, first) {
		return p
	}
	return rest
}
