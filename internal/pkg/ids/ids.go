// Package ids generates prefixed entity identifiers ("job_…", "scn_…").
// The prefix makes ids self-describing in logs and API payloads.
package ids

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Entity prefixes.
const (
	PrefixJob        = "job"
	PrefixScene      = "scn"
	PrefixEpoch      = "epo"
	PrefixAnnotation = "ann"
	PrefixElement    = "elm"
	PrefixEvent      = "evt"
)

// New returns a new unique id with the given prefix.
func New(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// HasPrefix reports whether id carries the given entity prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
