package idgen

import "github.com/oklog/ulid/v2"

// ULID returns a lexicographically sortable identifier. Session ids generated close
// in time sort together, which keeps event streams and snapshot keys ordered.
func ULID() string {
	return ulid.Make().String()
}
