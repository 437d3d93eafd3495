package gotreesitter

// The parse stack is a graph, not a stack: after a fork both versions
// share their older entries, and merging two versions joins their heads
// into one node with several outgoing links. Each node records the parse
// state and the absolute position reached; each link carries the subtree
// that was pushed over it. Popping follows every distinct path, which is
// how a single reduce applies to all stack versions that can supply the
// required children.

type stackStatus uint8

const (
	stackStatusActive stackStatus = iota
	stackStatusPaused
	stackStatusHalted
)

type stackLink struct {
	node      *stackNode
	subtree   *Subtree // nil for discontinuities pushed during recovery
	isPending bool
}

type stackNode struct {
	state    StateID
	position Length
	links    []stackLink
	refCount uint32

	// Aggregates along the best path to the base.
	errorCost         uint32
	nodeCount         uint32
	dynamicPrecedence int32
}

type stackSummaryEntry struct {
	position Length
	depth    uint32
	state    StateID
}

type stackHead struct {
	node                 *stackNode
	lastExternalToken    *Subtree
	summary              []stackSummaryEntry
	nodeCountAtLastError uint32
	pausedSymbol         Symbol
	status               stackStatus
}

// stackSlice is one path popped off a version: the subtrees in bottom-up
// order, and the version whose head now sits below them.
type stackSlice struct {
	subtrees []*Subtree
	version  int
}

type parseStack struct {
	heads    []stackHead
	baseNode *stackNode
	pool     *SubtreePool

	freeNodes []*stackNode
	slices    []stackSlice
	iterators []stackIterator
}

type stackIterator struct {
	node         *stackNode
	subtrees     []*Subtree
	subtreeCount int
	isPending    bool
}

const maxStackNodePoolSize = 64

func newParseStack(pool *SubtreePool) *parseStack {
	s := &parseStack{pool: pool}
	s.baseNode = s.newNode(initialState, lengthZero)
	s.baseNode.refCount++ // keep the base alive across clears
	s.clear()
	return s
}

func (s *parseStack) newNode(state StateID, position Length) *stackNode {
	var n *stackNode
	if len(s.freeNodes) > 0 {
		n = s.freeNodes[len(s.freeNodes)-1]
		s.freeNodes = s.freeNodes[:len(s.freeNodes)-1]
		*n = stackNode{}
	} else {
		n = &stackNode{}
	}
	n.state = state
	n.position = position
	n.refCount = 1
	return n
}

func (s *parseStack) retainNode(n *stackNode) *stackNode {
	if n != nil {
		n.refCount++
	}
	return n
}

func (s *parseStack) releaseNode(n *stackNode) {
	for n != nil {
		n.refCount--
		if n.refCount > 0 {
			return
		}
		// Release links; recurse only on the tail to bound stack depth
		// for typical link fan-outs.
		var next *stackNode
		for i, link := range n.links {
			if link.subtree != nil {
				s.pool.release(link.subtree)
			}
			if i == len(n.links)-1 {
				next = link.node
			} else {
				s.releaseNode(link.node)
			}
		}
		n.links = nil
		if len(s.freeNodes) < maxStackNodePoolSize {
			s.freeNodes = append(s.freeNodes, n)
		}
		n = next
	}
}

// addLink attaches a predecessor link to a node, deduplicating identical
// links and folding aggregate scores.
func (s *parseStack) addLink(n *stackNode, link stackLink) {
	for i := range n.links {
		existing := &n.links[i]
		if existing.node == link.node && existing.subtree == link.subtree {
			// Fully redundant.
			if link.subtree != nil {
				s.pool.release(link.subtree)
			}
			s.releaseNode(link.node)
			return
		}
	}
	n.links = append(n.links, link)

	cost := link.node.errorCost
	prec := link.node.dynamicPrecedence
	count := link.node.nodeCount + 1
	if link.subtree != nil {
		cost += link.subtree.errorCost
		prec += link.subtree.dynamicPrecedence
	}
	if len(n.links) == 1 || cost < n.errorCost {
		n.errorCost = cost
	}
	if len(n.links) == 1 || prec > n.dynamicPrecedence {
		n.dynamicPrecedence = prec
	}
	if len(n.links) == 1 || count > n.nodeCount {
		n.nodeCount = count
	}
}

func (s *parseStack) clear() {
	for i := range s.heads {
		s.releaseHead(&s.heads[i])
	}
	s.heads = s.heads[:0]
	s.heads = append(s.heads, stackHead{node: s.retainNode(s.baseNode)})
}

func (s *parseStack) releaseHead(h *stackHead) {
	s.releaseNode(h.node)
	s.pool.release(h.lastExternalToken)
	h.node = nil
	h.lastExternalToken = nil
	h.summary = nil
}

func (s *parseStack) versionCount() int {
	return len(s.heads)
}

func (s *parseStack) head(v int) *stackHead {
	return &s.heads[v]
}

func (s *parseStack) state(v int) StateID {
	return s.heads[v].node.state
}

func (s *parseStack) position(v int) Length {
	return s.heads[v].node.position
}

func (s *parseStack) isActive(v int) bool {
	return s.heads[v].status == stackStatusActive
}

func (s *parseStack) isPaused(v int) bool {
	return s.heads[v].status == stackStatusPaused
}

func (s *parseStack) isHalted(v int) bool {
	return s.heads[v].status == stackStatusHalted
}

func (s *parseStack) errorCost(v int) uint32 {
	return s.heads[v].node.errorCost
}

func (s *parseStack) dynamicPrecedence(v int) int32 {
	return s.heads[v].node.dynamicPrecedence
}

func (s *parseStack) nodeCountSinceError(v int) uint32 {
	h := &s.heads[v]
	if h.node.nodeCount < h.nodeCountAtLastError {
		return 0
	}
	return h.node.nodeCount - h.nodeCountAtLastError
}

func (s *parseStack) lastExternalToken(v int) *Subtree {
	return s.heads[v].lastExternalToken
}

func (s *parseStack) setLastExternalToken(v int, token *Subtree) {
	h := &s.heads[v]
	retainSubtree(token)
	s.pool.release(h.lastExternalToken)
	h.lastExternalToken = token
}

// push adds a node on top of a version. The link takes ownership of the
// caller's reference to the subtree (which may be nil for a recovery
// discontinuity).
func (s *parseStack) push(v int, subtree *Subtree, pending bool, state StateID) {
	h := &s.heads[v]
	position := h.node.position
	if subtree != nil {
		position = position.Add(subtree.totalLength())
	}
	n := s.newNode(state, position)
	s.addLink(n, stackLink{node: h.node, subtree: subtree, isPending: pending})
	h.node = n
	if subtree == nil {
		h.nodeCountAtLastError = n.nodeCount
	}
}

// popCount removes paths holding goal non-extra subtrees from a version.
// Every path produces one slice; each distinct ending node becomes a new
// version appended at the end of the version list, and v itself is left
// unchanged. Slices retain their subtrees.
func (s *parseStack) popCount(v int, goal int) []stackSlice {
	return s.iterate(v, func(it *stackIterator) (pop, stop bool) {
		if it.subtreeCount == goal {
			return true, true
		}
		return false, false
	})
}

// popPending removes the top entry of a version if it is pending.
func (s *parseStack) popPending(v int) []stackSlice {
	slices := s.iterate(v, func(it *stackIterator) (pop, stop bool) {
		if it.subtreeCount >= 1 {
			return it.isPending, true
		}
		return false, false
	})
	return slices
}

// popError removes the top entry of a version if its subtree is an
// error, following the first error link when several exist.
func (s *parseStack) popError(v int) []*Subtree {
	h := &s.heads[v]
	for _, link := range h.node.links {
		if link.subtree != nil && link.subtree.isErrorNode() {
			tree := retainSubtree(link.subtree)
			newHead := s.retainNode(link.node)
			s.releaseNode(h.node)
			h.node = newHead
			return []*Subtree{tree}
		}
	}
	return nil
}

// popAll removes everything down to the stack base.
func (s *parseStack) popAll(v int) []stackSlice {
	base := s.baseNode
	return s.iterate(v, func(it *stackIterator) (pop, stop bool) {
		if it.node == base {
			return true, true
		}
		return false, false
	})
}

// iterate walks all paths from a version's head toward the base, calling
// decide at every node. Paths the callback pops become slices assigned
// to new versions appended at the end of the version list; the original
// version is left untouched so the caller can renumber a surviving slice
// version into it.
func (s *parseStack) iterate(v int, decide func(it *stackIterator) (pop, stop bool)) []stackSlice {
	h := &s.heads[v]
	s.slices = s.slices[:0]
	iters := s.iterators[:0]
	iters = append(iters, stackIterator{node: h.node})

	var endNodes []*stackNode
	var endTrees [][]*Subtree

	for len(iters) > 0 {
		it := iters[len(iters)-1]
		iters = iters[:len(iters)-1]

		pop, stop := decide(&it)
		if pop {
			// Reverse into bottom-up order.
			trees := make([]*Subtree, len(it.subtrees))
			for i, t := range it.subtrees {
				trees[len(trees)-1-i] = retainSubtree(t)
			}
			endNodes = append(endNodes, it.node)
			endTrees = append(endTrees, trees)
		}
		if stop {
			continue
		}
		for li := range it.node.links {
			link := it.node.links[li]
			next := stackIterator{
				node:         link.node,
				subtreeCount: it.subtreeCount,
				isPending:    link.isPending,
			}
			next.subtrees = append(append([]*Subtree(nil), it.subtrees...), nil)
			if link.subtree != nil {
				next.subtrees[len(next.subtrees)-1] = link.subtree
				if !link.subtree.extra {
					next.subtreeCount++
				}
			} else {
				next.subtrees = next.subtrees[:len(next.subtrees)-1]
			}
			iters = append(iters, next)
		}
	}
	s.iterators = iters[:0]

	// Each distinct ending node becomes a new version.
	versionByNode := map[*stackNode]int{}
	for i, endNode := range endNodes {
		version, seen := versionByNode[endNode]
		if !seen {
			version = len(s.heads)
			s.heads = append(s.heads, stackHead{
				node:                 s.retainNode(endNode),
				lastExternalToken:    retainSubtree(s.heads[v].lastExternalToken),
				nodeCountAtLastError: s.heads[v].nodeCountAtLastError,
				status:               stackStatusActive,
			})
			versionByNode[endNode] = version
		}
		s.slices = append(s.slices, stackSlice{subtrees: endTrees[i], version: version})
	}
	return s.slices
}

// canMerge reports whether two versions have identical keys.
func (s *parseStack) canMerge(a, b int) bool {
	ha, hb := &s.heads[a], &s.heads[b]
	return ha.status == hb.status &&
		ha.node.state == hb.node.state &&
		ha.node.position.Bytes == hb.node.position.Bytes &&
		externalScannerStateEq(ha.lastExternalToken, hb.lastExternalToken)
}

// merge combines version b into version a when their keys match. b's
// links move onto a's head node and b is removed.
func (s *parseStack) merge(a, b int) bool {
	if !s.canMerge(a, b) {
		return false
	}
	ha, hb := &s.heads[a], &s.heads[b]
	if ha.node != hb.node {
		for _, link := range hb.node.links {
			if link.subtree != nil {
				retainSubtree(link.subtree)
			}
			s.addLink(ha.node, stackLink{
				node:      s.retainNode(link.node),
				subtree:   link.subtree,
				isPending: link.isPending,
			})
		}
	}
	s.removeVersion(b)
	return true
}

func (s *parseStack) removeVersion(v int) {
	s.releaseHead(&s.heads[v])
	copy(s.heads[v:], s.heads[v+1:])
	s.heads = s.heads[:len(s.heads)-1]
}

// renumber moves version src into slot dst, discarding dst's old head.
func (s *parseStack) renumber(src, dst int) {
	if src == dst {
		return
	}
	s.releaseHead(&s.heads[dst])
	s.heads[dst] = s.heads[src]
	s.heads[src] = stackHead{}
	copy(s.heads[src:], s.heads[src+1:])
	s.heads = s.heads[:len(s.heads)-1]
}

func (s *parseStack) swapVersions(a, b int) {
	s.heads[a], s.heads[b] = s.heads[b], s.heads[a]
}

// copyVersion duplicates a version; the copy shares every stack node.
func (s *parseStack) copyVersion(v int) int {
	h := &s.heads[v]
	s.heads = append(s.heads, stackHead{
		node:                 s.retainNode(h.node),
		lastExternalToken:    retainSubtree(h.lastExternalToken),
		nodeCountAtLastError: h.nodeCountAtLastError,
		status:               stackStatusActive,
	})
	return len(s.heads) - 1
}

func (s *parseStack) halt(v int) {
	s.heads[v].status = stackStatusHalted
}

func (s *parseStack) pause(v int, sym Symbol) {
	h := &s.heads[v]
	h.status = stackStatusPaused
	h.pausedSymbol = sym
}

func (s *parseStack) resume(v int) Symbol {
	h := &s.heads[v]
	h.status = stackStatusActive
	sym := h.pausedSymbol
	h.pausedSymbol = 0
	return sym
}

// recordSummary walks a version's spine breadth-first and records the
// (state, position, depth) triples reachable within maxDepth pops. The
// recovery logic later scans this summary for a state that can consume
// the failing lookahead.
func (s *parseStack) recordSummary(v int, maxDepth uint32) {
	type visit struct {
		node  *stackNode
		depth uint32
	}
	h := &s.heads[v]
	summary := h.summary[:0]
	queue := []visit{{node: h.node, depth: 0}}
	seen := map[*stackNode]bool{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > maxDepth || seen[cur.node] {
			continue
		}
		seen[cur.node] = true
		duplicate := false
		for _, e := range summary {
			if e.state == cur.node.state && e.position.Bytes == cur.node.position.Bytes {
				duplicate = true
				break
			}
		}
		if !duplicate {
			summary = append(summary, stackSummaryEntry{
				position: cur.node.position,
				depth:    cur.depth,
				state:    cur.node.state,
			})
		}
		for _, link := range cur.node.links {
			// Depth counts the same way popCount does: only non-extra
			// subtrees contribute.
			depth := cur.depth
			if link.subtree != nil && !link.subtree.extra {
				depth++
			}
			queue = append(queue, visit{node: link.node, depth: depth})
		}
	}
	h.summary = summary
}

func (s *parseStack) summary(v int) []stackSummaryEntry {
	return s.heads[v].summary
}
