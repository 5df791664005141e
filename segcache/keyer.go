package segcache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/jonwraymond/segcache/route"
)

// Key identifies one cached artifact.
type Key struct {
	// Template is the route template position of the segment.
	Template string

	// SlotPath locates the segment inside its route tree.
	SlotPath string

	// Fingerprint is the digest of the parameter values the segment reads.
	Fingerprint string
}

func (k Key) String() string {
	return k.Template + "#" + k.SlotPath + ":" + k.Fingerprint
}

// Fingerprint derives a stable digest of full restricted to the parameters
// the segment has been observed reading.
//
// Determinism: identical params-read sets with identical restricted values
// produce identical fingerprints regardless of map iteration order; names
// are folded in lexicographic order. Parameters outside the params-read set
// never influence the result, which is what lets two requests differing
// only in ignored parameters share a cache entry. An absent optional
// catch-all digests distinctly from an explicit empty value.
func Fingerprint(seg *route.Segment, full route.Params) (string, error) {
	if seg == nil {
		return "", ErrNilSegment
	}
	d := xxhash.New()
	for _, name := range seg.ParamsRead() {
		// Field and record separators keep adjacent name/value pairs from
		// colliding under concatenation.
		_, _ = d.WriteString(name)
		_, _ = d.WriteString("\x1f")
		_, _ = d.WriteString(full.Get(name).Encode())
		_, _ = d.WriteString("\x1e")
	}
	return fmt.Sprintf("%016x", d.Sum64()), nil
}

// KeyFor builds the full cache key for a segment under the given navigation
// parameters.
func KeyFor(seg *route.Segment, full route.Params) (Key, error) {
	fp, err := Fingerprint(seg, full)
	if err != nil {
		return Key{}, err
	}
	return Key{
		Template:    seg.Template,
		SlotPath:    seg.SlotPath(),
		Fingerprint: fp,
	}, nil
}
