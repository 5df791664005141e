package route

import (
	"fmt"
	"strings"
	"time"
)

// Descriptor declares one segment of a route tree before it is built.
// Descriptors come from the manifest/bundling collaborator.
type Descriptor struct {
	// Template is the route template position of the segment.
	Template string

	// Declared is the declared prefetch capability.
	Declared Capability

	// Samples enumerates parameter sets for a runtime declaration.
	Samples []Sample

	// RevalidateAfter is the revalidation window; zero marks a forced
	// dynamic hole.
	RevalidateAfter time.Duration

	// Deferred marks a deferred-rendering wrapper above this segment's
	// content.
	Deferred bool

	// ClientOnly marks a subtree that renders only after hydration.
	ClientOnly bool

	// Slots holds the child descriptors by slot name. Each slot holds at
	// most one child.
	Slots map[string]*Descriptor
}

// Tree is an immutable arena of segments indexed by identity. Segment
// descriptors never change after the build; only the per-segment accumulators
// do.
type Tree struct {
	root  *Segment
	index map[string]*Segment
	order []*Segment
}

// NewTree builds a route tree from the root descriptor.
func NewTree(root *Descriptor) (*Tree, error) {
	if root == nil {
		return nil, ErrNilDescriptor
	}
	t := &Tree{index: make(map[string]*Segment)}
	seg, err := t.build(root, "", "")
	if err != nil {
		return nil, err
	}
	t.root = seg
	return t, nil
}

func (t *Tree) build(d *Descriptor, slot, parentSlotPath string) (*Segment, error) {
	if d.Template == "" {
		return nil, ErrEmptyTemplate
	}
	slotPath := parentSlotPath
	if slot != "" {
		if slotPath == "" {
			slotPath = slot
		} else {
			slotPath = slotPath + "/" + slot
		}
	}
	seg := &Segment{
		Template:        d.Template,
		Slot:            slot,
		Declared:        d.Declared,
		Samples:         d.Samples,
		RevalidateAfter: d.RevalidateAfter,
		Deferred:        d.Deferred,
		ClientOnly:      d.ClientOnly,
		slotPath:        slotPath,
	}
	if _, exists := t.index[seg.ID()]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSegment, seg.ID())
	}
	t.index[seg.ID()] = seg
	t.order = append(t.order, seg)

	if len(d.Slots) > 0 {
		seg.slots = make(map[string]*Segment, len(d.Slots))
		for name, child := range d.Slots {
			if strings.TrimSpace(name) == "" || strings.Contains(name, "/") {
				return nil, fmt.Errorf("%w: %q", ErrInvalidSlot, name)
			}
			if child == nil {
				return nil, ErrNilDescriptor
			}
			seg.slots[name] = nil // reserve before recursing, keeps order stable below
		}
		for _, name := range sortedSlotNames(seg.slots) {
			built, err := t.build(d.Slots[name], name, slotPath)
			if err != nil {
				return nil, err
			}
			seg.slots[name] = built
		}
		seg.slotNames = sortedSlotNames(seg.slots)
	}
	return seg, nil
}

// Root returns the root segment.
func (t *Tree) Root() *Segment {
	return t.root
}

// Lookup finds a segment by template and slot path.
func (t *Tree) Lookup(template, slotPath string) (*Segment, bool) {
	seg, ok := t.index[template+"#"+slotPath]
	return seg, ok
}

// Len returns the number of segments in the tree.
func (t *Tree) Len() int {
	return len(t.index)
}

// WalkFunc visits one segment together with its ancestor chain, root first.
type WalkFunc func(seg *Segment, ancestors []*Segment) error

// Walk traverses the tree top-down, root to leaf. The default slot of each
// segment is visited before its parallel slots. Returning an error aborts
// the walk.
func (t *Tree) Walk(fn WalkFunc) error {
	if t.root == nil {
		return ErrSegmentNotFound
	}
	return walk(t.root, nil, fn)
}

func walk(seg *Segment, ancestors []*Segment, fn WalkFunc) error {
	if err := fn(seg, ancestors); err != nil {
		return err
	}
	ancestors = append(ancestors, seg)
	for _, name := range seg.slotNames {
		if err := walk(seg.slots[name], ancestors, fn); err != nil {
			return err
		}
	}
	return nil
}

// Segments returns all segments in walk order (root first).
func (t *Tree) Segments() []*Segment {
	out := make([]*Segment, len(t.order))
	copy(out, t.order)
	return out
}
