package gotreesitter

import (
	"strings"
)

// Tree holds a complete syntax tree. The tree owns one reference to its
// root subtree; Close releases it back to the parser's pool.
type Tree struct {
	root     *Subtree
	language *Language
	pool     *SubtreePool
}

func newTree(root *Subtree, lang *Language, pool *SubtreePool) *Tree {
	return &Tree{root: root, language: lang, pool: pool}
}

// Language returns the language this tree was parsed with.
func (t *Tree) Language() *Language { return t.language }

// Close releases the tree's root. The tree must not be used afterwards.
func (t *Tree) Close() {
	if t.root != nil {
		t.pool.release(t.root)
		t.root = nil
	}
}

// RootNode returns a cursor to the tree's root.
func (t *Tree) RootNode() Node {
	return Node{subtree: t.root, language: t.language}
}

// InputEdit describes one edit applied to the source text, in both byte
// offsets and row/column points.
type InputEdit struct {
	StartByte   uint32
	OldEndByte  uint32
	NewEndByte  uint32
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// Edit adjusts the tree for a source edit: positions shift, and every
// subtree whose range intersects the edited range is marked as changed
// so the next parse will not reuse it. Call once per edit, oldest first,
// before handing the tree back to Parse.
func (t *Tree) Edit(edit InputEdit) {
	if t.root == nil {
		return
	}
	editSubtree(t.root, treeEdit{
		Start:  Length{Bytes: edit.StartByte, Extent: edit.StartPoint},
		OldEnd: Length{Bytes: edit.OldEndByte, Extent: edit.OldEndPoint},
		NewEnd: Length{Bytes: edit.NewEndByte, Extent: edit.NewEndPoint},
	})
}

// String renders the tree as an S-expression over visible nodes.
func (t *Tree) String() string {
	if t.root == nil {
		return ""
	}
	var b strings.Builder
	writeSExpression(&b, t.root, t.language)
	return b.String()
}

func writeSExpression(b *strings.Builder, s *Subtree, lang *Language) {
	if s.isMissing {
		b.WriteString("(MISSING ")
		b.WriteString(lang.SymbolName(s.symbol))
		b.WriteString(")")
		return
	}
	b.WriteString("(")
	b.WriteString(lang.SymbolName(s.symbol))
	for _, child := range s.children {
		writeChildSExpression(b, child, lang)
	}
	b.WriteString(")")
}

// writeChildSExpression renders named children and splices the contents
// of hidden internal nodes (error repeats, auxiliary rules) into the
// surrounding node.
func writeChildSExpression(b *strings.Builder, s *Subtree, lang *Language) {
	if s.visible {
		if !s.named && !s.isMissing {
			return
		}
		b.WriteString(" ")
		writeSExpression(b, s, lang)
		return
	}
	if s.isMissing {
		b.WriteString(" ")
		writeSExpression(b, s, lang)
		return
	}
	for _, child := range s.children {
		writeChildSExpression(b, child, lang)
	}
}

// Node is a read-only view of one subtree together with its absolute
// position in the source.
type Node struct {
	subtree  *Subtree
	position Length // where the node's padding begins
	language *Language
}

// IsNil reports whether the node view is empty.
func (n Node) IsNil() bool { return n.subtree == nil }

// Symbol returns the node's grammar symbol.
func (n Node) Symbol() Symbol { return n.subtree.symbol }

// Type returns the node's type name.
func (n Node) Type() string { return n.language.SymbolName(n.subtree.symbol) }

// IsNamed reports whether this is a named node, as opposed to anonymous
// syntax like punctuation.
func (n Node) IsNamed() bool { return n.subtree.named }

// IsMissing reports whether this node was inserted by error recovery.
func (n Node) IsMissing() bool { return n.subtree.isMissing }

// IsExtra reports whether this node is an extra (whitespace, comments).
func (n Node) IsExtra() bool { return n.subtree.extra }

// IsError reports whether this node is an ERROR node.
func (n Node) IsError() bool { return n.subtree.isErrorNode() }

// HasError reports whether this node or any descendant contains a parse
// error or missing token.
func (n Node) HasError() bool { return n.subtree.errorCost > 0 }

// ErrorCost returns the accumulated error cost of the subtree.
func (n Node) ErrorCost() uint32 { return n.subtree.errorCost }

// StartByte returns the byte offset where this node's content begins.
func (n Node) StartByte() uint32 {
	return n.position.Bytes + n.subtree.padding.Bytes
}

// EndByte returns the byte offset where this node ends (exclusive).
func (n Node) EndByte() uint32 {
	return n.StartByte() + n.subtree.size.Bytes
}

// StartPoint returns the row/column position where this node's content
// begins.
func (n Node) StartPoint() Point {
	return n.position.Add(n.subtree.padding).Extent
}

// EndPoint returns the row/column position where this node ends.
func (n Node) EndPoint() Point {
	return n.position.Add(n.subtree.totalLength()).Extent
}

// ChildCount returns the number of children.
func (n Node) ChildCount() int { return n.subtree.childCount() }

// Child returns the i-th child, or a nil node if out of range.
func (n Node) Child(i int) Node {
	if i < 0 || i >= n.subtree.childCount() {
		return Node{}
	}
	position := n.position
	for j := 0; j < i; j++ {
		position = position.Add(n.subtree.children[j].totalLength())
	}
	return Node{subtree: n.subtree.children[i], position: position, language: n.language}
}

// NamedChild returns the i-th named child, skipping anonymous ones.
func (n Node) NamedChild(i int) Node {
	count := 0
	position := n.position
	for _, child := range n.subtree.children {
		if child.named && child.visible {
			if count == i {
				return Node{subtree: child, position: position, language: n.language}
			}
			count++
		}
		position = position.Add(child.totalLength())
	}
	return Node{}
}

// NamedChildCount returns the number of named children.
func (n Node) NamedChildCount() int {
	count := 0
	for _, child := range n.subtree.children {
		if child.named && child.visible {
			count++
		}
	}
	return count
}

// Text returns the source text covered by this node.
func (n Node) Text(source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(start) > len(source) || int(end) > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}
