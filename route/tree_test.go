package route

import (
	"errors"
	"testing"
	"time"
)

func storefrontDescriptor() *Descriptor {
	return &Descriptor{
		Template:        "/",
		Declared:        CapabilityStatic,
		RevalidateAfter: time.Hour,
		Slots: map[string]*Descriptor{
			DefaultSlot: {
				Template:        "/category/[cat]",
				Declared:        CapabilityRuntime,
				RevalidateAfter: 15 * time.Minute,
				Slots: map[string]*Descriptor{
					DefaultSlot: {
						Template:        "/category/[cat]/items",
						Declared:        CapabilityStatic,
						RevalidateAfter: time.Hour,
					},
				},
			},
			"sidebar": {
				Template:        "/category/[cat]@sidebar",
				Declared:        CapabilityStatic,
				RevalidateAfter: time.Hour,
			},
		},
	}
}

func TestNewTree_BuildAndLookup(t *testing.T) {
	tree, err := NewTree(storefrontDescriptor())
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	if tree.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tree.Len())
	}

	root := tree.Root()
	if root.Template != "/" {
		t.Errorf("root template = %q, want %q", root.Template, "/")
	}
	if root.SlotPath() != "" {
		t.Errorf("root slot path = %q, want empty", root.SlotPath())
	}

	leaf, ok := tree.Lookup("/category/[cat]/items", "children/children")
	if !ok {
		t.Fatal("Lookup for nested child should succeed")
	}
	if leaf.ID() != "/category/[cat]/items#children/children" {
		t.Errorf("leaf ID = %q, want %q", leaf.ID(), "/category/[cat]/items#children/children")
	}

	if _, ok := tree.Lookup("/category/[cat]/items", "children"); ok {
		t.Error("Lookup with wrong slot path should fail")
	}
}

func TestTree_WalkOrder(t *testing.T) {
	tree, err := NewTree(storefrontDescriptor())
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	var ids []string
	err = tree.Walk(func(seg *Segment, ancestors []*Segment) error {
		ids = append(ids, seg.ID())
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	// Root first, then the default slot's subtree, then parallel slots.
	want := []string{
		"/#",
		"/category/[cat]#children",
		"/category/[cat]/items#children/children",
		"/category/[cat]@sidebar#sidebar",
	}
	if len(ids) != len(want) {
		t.Fatalf("Walk visited %d segments, want %d: %v", len(ids), len(want), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("walk order[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestTree_WalkAncestors(t *testing.T) {
	tree, err := NewTree(storefrontDescriptor())
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	err = tree.Walk(func(seg *Segment, ancestors []*Segment) error {
		if seg.Template == "/category/[cat]/items" {
			if len(ancestors) != 2 {
				t.Errorf("leaf has %d ancestors, want 2", len(ancestors))
			} else if ancestors[0].Template != "/" || ancestors[1].Template != "/category/[cat]" {
				t.Errorf("ancestor chain = [%s %s], want [/ /category/[cat]]",
					ancestors[0].Template, ancestors[1].Template)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
}

func TestNewTree_Errors(t *testing.T) {
	tests := []struct {
		name string
		root *Descriptor
		want error
	}{
		{"nil root", nil, ErrNilDescriptor},
		{"empty template", &Descriptor{}, ErrEmptyTemplate},
		{
			"slot name with slash",
			&Descriptor{
				Template: "/",
				Slots:    map[string]*Descriptor{"a/b": {Template: "/x"}},
			},
			ErrInvalidSlot,
		},
		{
			"nil child",
			&Descriptor{
				Template: "/",
				Slots:    map[string]*Descriptor{DefaultSlot: nil},
			},
			ErrNilDescriptor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTree(tt.root)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewTree error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewTree_DuplicateIdentity(t *testing.T) {
	// Same template in different slots is fine; identity is (template, slot
	// path), which differs here.
	root := &Descriptor{
		Template: "/",
		Slots: map[string]*Descriptor{
			"a": {Template: "/shared"},
			"b": {Template: "/shared"},
		},
	}
	if _, err := NewTree(root); err != nil {
		t.Fatalf("NewTree with same template in distinct slots failed: %v", err)
	}
}

func TestSegment_ObserveParamsMonotonic(t *testing.T) {
	tree, err := NewTree(storefrontDescriptor())
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	seg := tree.Root()

	seg.ObserveParams("b")
	seg.ObserveParams("a", "b")
	seg.ObserveParams("a")

	got := seg.ParamsRead()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ParamsRead() = %v, want [a b]", got)
	}
	if !seg.ReadsParam("a") {
		t.Error("ReadsParam(a) should be true after observation")
	}
	if seg.ReadsParam("c") {
		t.Error("ReadsParam(c) should be false, never observed")
	}
}

func TestSegment_ParamsGrowthInvalidatesClass(t *testing.T) {
	tree, err := NewTree(storefrontDescriptor())
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	seg := tree.Root()

	seg.Narrow(ClassStatic)
	if _, ok := seg.Class(); !ok {
		t.Fatal("classification should be current after Narrow")
	}

	seg.ObserveParams("region")
	c, ok := seg.Class()
	if ok {
		t.Error("params-read growth should mark classification as not current")
	}
	if c != ClassStatic {
		t.Errorf("recorded class = %v, want ClassStatic kept as floor", c)
	}

	// Re-observing the same name is not growth.
	seg.Narrow(ClassStatic)
	seg.ObserveParams("region")
	if _, ok := seg.Class(); !ok {
		t.Error("observing an already-known param should not invalidate classification")
	}
}
