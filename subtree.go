package gotreesitter

// Subtree is one node of a syntax tree. Subtrees are reference-counted
// and owned by a SubtreePool; they are mutated only during construction
// (via setChildren) and by Tree.Edit, which requires exclusive ownership.
//
// Positions are stored relative: padding is the whitespace (or skipped
// bytes) before the node's content, size is the extent of the content
// itself. Absolute positions fall out of summing the lengths of preceding
// siblings.
type Subtree struct {
	refCount int32

	symbol     Symbol
	parseState StateID

	padding Length
	size    Length

	// bytesScanned is how far past the token start the lexer read while
	// producing this subtree (never less than the size). It is recorded
	// and aggregated by setChildren; edit marking and the reuse checks
	// look at padding and size only, so an edit that touches just the
	// bytes read beyond the node's content does not mark the node.
	bytesScanned uint32

	errorCost         uint32
	dynamicPrecedence int32
	nodeCount         uint32
	aliasSequenceID   uint16

	children []*Subtree

	firstLeafSymbol  Symbol
	firstLeafLexMode LexMode

	visible           bool
	named             bool
	extra             bool
	fragileLeft       bool
	fragileRight      bool
	isMissing         bool
	isKeyword         bool
	hasChanges        bool
	hasExternalTokens bool

	// lookaheadChar is the first unrecognized character of an error
	// leaf's span.
	lookaheadChar rune

	// externalTokenState is the serialized external scanner state saved
	// after this token was produced. Only set on external-token leaves.
	externalTokenState []byte
}

func (t *Subtree) totalLength() Length {
	return t.padding.Add(t.size)
}

func (t *Subtree) totalBytes() uint32 {
	return t.padding.Bytes + t.size.Bytes
}

func (t *Subtree) childCount() int {
	return len(t.children)
}

func (t *Subtree) isErrorNode() bool {
	return t.symbol == symbolError
}

func (t *Subtree) isEOF() bool {
	return t.symbol == symbolEnd
}

func (t *Subtree) isFragile() bool {
	return t.fragileLeft || t.fragileRight
}

// externalScannerStateEq compares the saved scanner states of two
// optional tokens. Both nil means equal.
func externalScannerStateEq(a, b *Subtree) bool {
	var sa, sb []byte
	if a != nil {
		sa = a.externalTokenState
	}
	if b != nil {
		sb = b.externalTokenState
	}
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// newLeaf creates a terminal node.
func (p *SubtreePool) newLeaf(sym Symbol, padding, size Length, lang *Language) *Subtree {
	t := p.get()
	meta := lang.symbolMetadata(sym)
	t.symbol = sym
	t.padding = padding
	t.size = size
	t.bytesScanned = size.Bytes
	t.visible = meta.Visible
	t.named = meta.Named
	t.nodeCount = 1
	t.firstLeafSymbol = sym
	return t
}

// newErrorLeaf creates a leaf covering a byte range no lexer recognized.
func (p *SubtreePool) newErrorLeaf(size, padding Length, bytesScanned uint32, firstErrorChar rune, lang *Language) *Subtree {
	t := p.newLeaf(symbolError, padding, size, lang)
	t.bytesScanned = bytesScanned
	t.fragileLeft = true
	t.fragileRight = true
	t.visible = true
	t.named = true
	t.lookaheadChar = firstErrorChar
	t.errorCost = errorCostPerRecovery +
		errorCostPerSkippedChar*size.Bytes +
		errorCostPerSkippedLine*size.Extent.Row
	return t
}

// newMissingLeaf creates a zero-width token synthesized during recovery.
func (p *SubtreePool) newMissingLeaf(sym Symbol, lang *Language) *Subtree {
	t := p.newLeaf(sym, lengthZero, lengthZero, lang)
	t.isMissing = true
	t.errorCost = errorCostPerMissingTree + errorCostPerRecovery
	return t
}

// newNode creates an internal node from a child array. The node takes
// ownership of the callers' references to the children.
func (p *SubtreePool) newNode(sym Symbol, children []*Subtree, aliasSequenceID uint16, lang *Language) *Subtree {
	t := p.get()
	meta := lang.symbolMetadata(sym)
	t.symbol = sym
	t.visible = meta.Visible
	t.named = meta.Named
	t.aliasSequenceID = aliasSequenceID
	t.setChildren(children, lang)
	return t
}

// newErrorNode wraps a child array in an ERROR node.
func (p *SubtreePool) newErrorNode(children []*Subtree, extra bool, lang *Language) *Subtree {
	t := p.newNode(symbolError, children, 0, lang)
	t.extra = extra
	return t
}

// setChildren installs a child array and recomputes every dependent
// field: size, padding, error cost, node count, dynamic precedence,
// change and external-token flags, and the first-leaf record.
func (t *Subtree) setChildren(children []*Subtree, lang *Language) {
	t.children = children
	t.padding = lengthZero
	t.size = lengthZero
	t.nodeCount = 1
	t.errorCost = 0
	t.dynamicPrecedence = 0
	t.hasChanges = false
	t.hasExternalTokens = false
	t.bytesScanned = 0

	for i, child := range children {
		if i == 0 {
			t.padding = child.padding
			t.size = child.size
			t.firstLeafSymbol = child.firstLeafSymbol
			t.firstLeafLexMode = child.firstLeafLexMode
			t.fragileLeft = child.fragileLeft
		} else {
			t.size = t.size.Add(child.totalLength())
		}

		// The scanned span of a child may reach past the node content.
		offset := t.padding.Bytes + t.size.Bytes - child.size.Bytes
		if scanned := offset + child.bytesScanned; scanned > t.bytesScanned {
			t.bytesScanned = scanned
		}

		t.errorCost += child.errorCost
		t.dynamicPrecedence += child.dynamicPrecedence
		t.nodeCount += child.nodeCount
		if child.hasChanges {
			t.hasChanges = true
		}
		if child.hasExternalTokens {
			t.hasExternalTokens = true
		}
	}
	if n := len(children); n > 0 {
		t.fragileRight = children[n-1].fragileRight
	}
	t.bytesScanned -= t.padding.Bytes
	if t.bytesScanned < t.size.Bytes {
		t.bytesScanned = t.size.Bytes
	}

	if t.symbol == symbolError || t.symbol == symbolErrorRepeat {
		t.errorCost += errorCostPerRecovery +
			errorCostPerSkippedChar*t.size.Bytes +
			errorCostPerSkippedLine*t.size.Extent.Row
	}
}

// makeCopy produces a shallow clone: scalar fields are copied and every
// child is retained by the clone.
func (p *SubtreePool) makeCopy(t *Subtree) *Subtree {
	c := p.get()
	*c = *t
	c.refCount = 1
	if len(t.children) > 0 {
		c.children = make([]*Subtree, len(t.children))
		for i, child := range t.children {
			c.children[i] = retainSubtree(child)
		}
	}
	if len(t.externalTokenState) > 0 {
		c.externalTokenState = append([]byte(nil), t.externalTokenState...)
	}
	return c
}

// compareSubtrees defines a total order on subtrees, used to break ties
// between equally scored parses: symbol, then child count, then children
// recursively.
func compareSubtrees(a, b *Subtree) int {
	if a.symbol != b.symbol {
		if a.symbol < b.symbol {
			return -1
		}
		return 1
	}
	if len(a.children) != len(b.children) {
		if len(a.children) < len(b.children) {
			return -1
		}
		return 1
	}
	for i := range a.children {
		if c := compareSubtrees(a.children[i], b.children[i]); c != 0 {
			return c
		}
	}
	return 0
}

// treeEdit is an edit expressed relative to a subtree's start. Start and
// OldEnd are positions in the pre-edit coordinate space, NewEnd in the
// post-edit space.
type treeEdit struct {
	Start  Length
	OldEnd Length
	NewEnd Length
}

func lengthMin(a, b Length) Length {
	if a.Bytes <= b.Bytes {
		return a
	}
	return b
}

// editSubtree applies an edit to a subtree in place, adjusting paddings
// and sizes and marking every node whose padding+size range intersects
// the edited range with hasChanges. The caller must hold the only
// reference to the affected spine.
func editSubtree(t *Subtree, edit treeEdit) {
	if edit.OldEnd.Bytes <= edit.Start.Bytes && edit.NewEnd.Bytes <= edit.Start.Bytes {
		// Zero-length no-op.
		return
	}
	total := t.totalLength()
	pureInsertion := edit.OldEnd.Bytes <= edit.Start.Bytes
	// A pure insertion at the node's right edge extends the node; any
	// other edit starting at or past the end belongs to a later sibling.
	if edit.Start.Bytes > total.Bytes ||
		(edit.Start.Bytes == total.Bytes && !pureInsertion) {
		return
	}

	t.hasChanges = true

	if len(t.children) == 0 {
		switch {
		case edit.OldEnd.Bytes <= t.padding.Bytes:
			// Entirely within the padding.
			t.padding = edit.NewEnd.Add(t.padding.Sub(edit.OldEnd))
		case edit.Start.Bytes < t.padding.Bytes:
			// Spans from the padding into the content.
			t.padding = edit.NewEnd
			t.size = total.Sub(lengthMin(edit.OldEnd, total))
		default:
			// Within the content.
			newSize := edit.Start.Sub(t.padding)
			newSize = newSize.Add(edit.NewEnd.Sub(edit.Start))
			if edit.OldEnd.Bytes < total.Bytes {
				newSize = newSize.Add(total.Sub(edit.OldEnd))
			}
			t.size = newSize
		}
		if t.bytesScanned < t.size.Bytes {
			t.bytesScanned = t.size.Bytes
		}
		return
	}

	// Internal node: distribute the edit over the children, in old
	// coordinates. The first intersecting child absorbs the inserted
	// text; later intersecting children only see the deletion.
	childStart := lengthZero
	absorbed := false
	insertion := edit.NewEnd.Sub(edit.Start)
	for ci, child := range t.children {
		childEnd := childStart.Add(child.totalLength())
		last := ci == len(t.children)-1
		affectsChild := edit.Start.Bytes < childEnd.Bytes ||
			(last && pureInsertion && edit.Start.Bytes == childEnd.Bytes)
		if !affectsChild {
			childStart = childEnd
			continue
		}
		if edit.OldEnd.Bytes < childStart.Bytes ||
			(edit.OldEnd.Bytes == childStart.Bytes && absorbed) {
			break
		}

		relStart := lengthZero
		if edit.Start.Bytes > childStart.Bytes {
			relStart = edit.Start.Sub(childStart)
		}
		relOldEnd := lengthZero
		if edit.OldEnd.Bytes > childStart.Bytes {
			relOldEnd = edit.OldEnd.Sub(childStart)
		}
		relNewEnd := relStart
		if !absorbed {
			relNewEnd = relStart.Add(insertion)
			absorbed = true
		}
		editSubtree(child, treeEdit{Start: relStart, OldEnd: relOldEnd, NewEnd: relNewEnd})
		childStart = childEnd
	}

	// Recompute this node's extent from the adjusted children.
	t.padding = lengthZero
	t.size = lengthZero
	for i, child := range t.children {
		if i == 0 {
			t.padding = child.padding
			t.size = child.size
		} else {
			t.size = t.size.Add(child.totalLength())
		}
	}
}
