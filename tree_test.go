package gotreesitter

import "testing"

func TestNodeAccessors(t *testing.T) {
	p := newTestParser(t, buildNumberLanguage())

	src := []byte("1 + 23")
	tree := p.ParseBytes(src, nil)
	defer tree.Close()

	root := tree.RootNode()
	if root.Type() != "expression" || !root.IsNamed() {
		t.Errorf("root = %q named=%v", root.Type(), root.IsNamed())
	}
	if root.StartByte() != 0 || root.EndByte() != 6 {
		t.Errorf("root span = [%d,%d)", root.StartByte(), root.EndByte())
	}

	if root.NamedChildCount() != 2 {
		t.Fatalf("named child count = %d, want 2", root.NamedChildCount())
	}
	inner := root.NamedChild(0)
	if inner.Type() != "expression" {
		t.Errorf("first named child = %q", inner.Type())
	}
	num := root.NamedChild(1)
	if num.Type() != "number" {
		t.Errorf("second named child = %q", num.Type())
	}
	if got := num.Text(src); got != "23" {
		t.Errorf("second number text = %q, want %q", got, "23")
	}

	plus := root.Child(1)
	if plus.IsNil() || plus.Type() != "+" || plus.IsNamed() {
		t.Errorf("child 1 = %q named=%v", plus.Type(), plus.IsNamed())
	}
	if outOfRange := root.Child(99); !outOfRange.IsNil() {
		t.Error("out-of-range child is not nil")
	}
}

func TestTreeStringRendersNamedNodes(t *testing.T) {
	p := newTestParser(t, buildNumberLanguage())

	tree := p.ParseBytes([]byte("7"), nil)
	defer tree.Close()

	if got, want := tree.String(), "(expression (number))"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTreeEditAdjustsSpans(t *testing.T) {
	p := newTestParser(t, buildNumberLanguage())

	src := []byte("1+2")
	tree := p.ParseBytes(src, nil)
	defer tree.Close()

	// Insert one byte at the start.
	tree.Edit(InputEdit{
		StartByte: 0, OldEndByte: 0, NewEndByte: 1,
		NewEndPoint: Point{Column: 1},
	})

	root := tree.RootNode()
	if root.EndByte() != 4 {
		t.Errorf("root end after insertion = %d, want 4", root.EndByte())
	}
	if !tree.root.hasChanges {
		t.Error("root not marked after edit")
	}
}

func TestTreeCloseReleasesRoot(t *testing.T) {
	p := newTestParser(t, buildNumberLanguage())

	tree := p.ParseBytes([]byte("1"), nil)
	root := tree.root
	if root.refCount != 1 {
		t.Fatalf("root refCount = %d, want 1", root.refCount)
	}
	tree.Close()
	if tree.root != nil {
		t.Error("root still set after Close")
	}
	if root.refCount != 0 {
		t.Errorf("root refCount after Close = %d, want 0", root.refCount)
	}
}
