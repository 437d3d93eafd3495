package gotreesitter

// Parser is an incremental GLR parser that reads parse tables from a
// Language and produces a syntax tree. Ambiguity is handled by forking
// the parse stack into versions; competing versions are periodically
// condensed (merged or pruned by error cost) and a winner among accepted
// parses is chosen by selectTree.
//
// A Parser is stateful and single-threaded: one parse runs to completion
// in the calling goroutine, and the parser must not be shared across
// goroutines. Distinct parsers are independent.
type Parser struct {
	language *Language
	stack    *parseStack
	pool     *SubtreePool
	lexer    *Lexer
	logger   Logger

	externalPayload any

	reusable reusableNode

	finishedTree *Subtree
	acceptCount  int
	inAmbiguity  bool

	tokenCache       tokenCache
	serializationBuf [TreeSitterSerializationBufferSize]byte

	reduceActions  []reduceAction
	trailingExtras []*Subtree
}

// ParseOptions tunes one Parse call.
type ParseOptions struct {
	// HaltOnError stops the parse as soon as no error-free version
	// remains; the rest of the input is wrapped in a single error node.
	HaltOnError bool
}

// Tunables.
const (
	maxVersionCount = 6
	maxSummaryDepth = 16
)

type reduceAction struct {
	symbol            Symbol
	count             int
	dynamicPrecedence int32
	aliasSequenceID   uint16
}

// NewParser creates a parser with no language assigned.
func NewParser() *Parser {
	p := &Parser{
		pool:   newSubtreePool(),
		lexer:  newLexer(),
		logger: nopLogger{},
	}
	p.stack = newParseStack(p.pool)
	return p
}

// SetLanguage assigns the language whose tables drive the parser. The
// external scanner payload, if any, is created here and destroyed by
// Close or by the next SetLanguage.
func (p *Parser) SetLanguage(lang *Language) error {
	p.destroyExternalPayload()
	p.language = lang
	if lang != nil && lang.ExternalScanner != nil {
		p.externalPayload = lang.ExternalScanner.Create()
	}
	p.Reset()
	return nil
}

// SetLogger installs a debug logger. Pass nil to disable logging.
func (p *Parser) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	p.logger = l
	p.lexer.logger = l
}

// Reset drops all state retained from previous parses.
func (p *Parser) Reset() {
	p.clearTokenCache()
	p.pool.release(p.finishedTree)
	p.finishedTree = nil
	p.reusable = reusableNode{}
	p.acceptCount = 0
	p.inAmbiguity = false
	p.stack.clear()
}

// Close releases the parser's retained state and the external scanner
// payload.
func (p *Parser) Close() {
	p.Reset()
	p.destroyExternalPayload()
}

func (p *Parser) destroyExternalPayload() {
	if p.language != nil && p.language.ExternalScanner != nil && p.externalPayload != nil {
		p.language.ExternalScanner.Destroy(p.externalPayload)
	}
	p.externalPayload = nil
}

// ParseBytes parses a byte slice. oldTree, when non-nil, must be a tree
// previously produced by this language whose edits were applied with
// Tree.Edit; unchanged subtrees are then reused.
func (p *Parser) ParseBytes(src []byte, oldTree *Tree) *Tree {
	return p.Parse(NewByteSliceInput(src), oldTree)
}

// Parse parses input, optionally reusing an edited previous tree.
func (p *Parser) Parse(input Input, oldTree *Tree) *Tree {
	return p.ParseWithOptions(input, oldTree, ParseOptions{})
}

// ParseWithOptions is Parse with explicit options.
func (p *Parser) ParseWithOptions(input Input, oldTree *Tree, opts ParseOptions) *Tree {
	if p.language == nil {
		return nil
	}
	p.Reset()
	p.lexer.setInput(input)
	if oldTree != nil && oldTree.root != nil {
		p.reusable = newReusableNode(oldTree.root)
		p.log(LogTypeParse, "resume_parsing")
	} else {
		p.log(LogTypeParse, "new_parsing")
	}

	var lastPosition Length
	for {
		for v := 0; v < p.stack.versionCount(); v++ {
			cursor := p.reusable.clone()
			for p.stack.isActive(v) {
				p.log(LogTypeParse, "process version:%d, version_count:%d, state:%d, row:%d, col:%d",
					v, p.stack.versionCount(), p.stack.state(v),
					p.stack.position(v).Extent.Row, p.stack.position(v).Extent.Column)
				p.advanceVersion(v, &cursor)
				if !p.stack.isActive(v) {
					break
				}
				position := p.stack.position(v)
				if position.Bytes > lastPosition.Bytes {
					if v == 0 {
						lastPosition = position
					}
					break
				}
				if v > 0 && position.Bytes == lastPosition.Bytes {
					break
				}
			}
			if v == 0 {
				p.reusable = cursor
			}
		}

		minErrorCost, anyActive := p.condenseStack()
		if p.finishedTree != nil && p.finishedTree.errorCost < minErrorCost {
			break
		}
		if opts.HaltOnError && minErrorCost > 0 {
			p.haltParse()
			break
		}
		p.inAmbiguity = p.stack.versionCount() > 1
		if !anyActive {
			break
		}
	}

	root := p.finishedTree
	p.finishedTree = nil
	if root == nil {
		// Every version halted without accepting; produce a best-effort
		// error tree.
		root = p.wrapRemainingInput()
	}
	p.stack.clear()
	p.clearTokenCache()
	p.reusable = reusableNode{}
	p.log(LogTypeParse, "done")

	return newTree(root, p.language, p.pool)
}

// getLookahead produces the next lookahead for a version: a reused
// subtree from the old parse if one is intact at this position, else the
// cached token, else a freshly lexed token.
func (p *Parser) getLookahead(v int, state StateID, cursor *reusableNode, entry *TableEntry) *Subtree {
	position := p.stack.position(v)
	lastExternalToken := p.stack.lastExternalToken(v)

	for {
		t := cursor.tree()
		if t == nil {
			break
		}
		byteOffset := cursor.byteOffset()
		endByte := byteOffset + t.totalBytes()

		if byteOffset > position.Bytes {
			p.log(LogTypeParse, "before_reusable_node symbol:%s", p.language.SymbolName(t.symbol))
			break
		}
		if byteOffset < position.Bytes {
			p.log(LogTypeParse, "past_reusable_node symbol:%s", p.language.SymbolName(t.symbol))
			if endByte <= position.Bytes || !cursor.descend() {
				cursor.advance()
			}
			continue
		}
		if !externalScannerStateEq(cursor.lastExternalToken, lastExternalToken) {
			p.log(LogTypeParse, "reusable_node_has_different_external_scanner_state")
			cursor.advance()
			continue
		}

		reason := ""
		switch {
		case t.hasChanges:
			reason = "has_changes"
		case t.isErrorNode():
			reason = "is_error"
		case t.isMissing:
			reason = "is_missing"
		case t.isFragile():
			reason = "is_fragile"
		case p.inAmbiguity && t.childCount() > 0:
			reason = "in_ambiguity"
		}
		if reason != "" {
			p.log(LogTypeParse, "cant_reuse_node_%s tree:%s", reason, p.language.SymbolName(t.symbol))
			if !cursor.descend() {
				cursor.advance()
			}
			continue
		}

		*entry = p.language.tableEntry(state, t.firstLeafSymbol)
		if !p.canReuseFirstLeaf(state, t, entry) {
			p.log(LogTypeParse, "cant_reuse_node symbol:%s", p.language.SymbolName(t.firstLeafSymbol))
			cursor.advancePastLeaf()
			break
		}

		// The cursor stays on the reused node; it advances only when the
		// node is actually shifted.
		p.log(LogTypeParse, "reuse_node symbol:%s", p.language.SymbolName(t.symbol))
		return retainSubtree(t)
	}

	if cached := p.cachedToken(state, position.Bytes, lastExternalToken, entry); cached != nil {
		p.log(LogTypeParse, "reuse_cached_token symbol:%s", p.language.SymbolName(cached.symbol))
		return cached
	}

	token := p.lex(v, state)
	p.setCachedToken(position.Bytes, lastExternalToken, token)
	*entry = p.language.tableEntry(state, token.symbol)
	return token
}

// advanceVersion performs one lookahead's worth of work on a version:
// all reductions enabled by the lookahead, then a shift, accept, or
// recovery step.
func (p *Parser) advanceVersion(v int, cursor *reusableNode) {
	state := p.stack.state(v)
	var entry TableEntry
	lookahead := p.getLookahead(v, state, cursor, &entry)

	for {
		lastReductionVersion := -1

		for i := range entry.Actions {
			action := entry.Actions[i]
			switch action.Type {
			case ParseActionShift:
				if action.Repetition {
					continue
				}
				var nextState StateID
				if action.Extra {
					// TODO remove once language version 9 tables are the
					// floor: extra shifts are suppressed in the error
					// state for older tables.
					if state == errorState {
						continue
					}
					nextState = state
				} else {
					nextState = action.State
				}
				if lookahead.childCount() > 0 {
					p.breakdownLookahead(&lookahead, state, cursor)
					nextState = p.language.NextState(state, lookahead.symbol)
				}
				didReuse := cursor.tree() == lookahead
				p.shift(v, nextState, lookahead, action.Extra)
				if didReuse {
					cursor.advance()
				}
				p.log(LogTypeParse, "shift state:%d", nextState)
				return

			case ParseActionReduce:
				isFragile := len(entry.Actions) > 1
				p.log(LogTypeParse, "reduce sym:%s, child_count:%d",
					p.language.SymbolName(action.Symbol), action.ChildCount)
				rv := p.reduce(v, action.Symbol, int(action.ChildCount),
					int32(action.DynamicPrecedence), action.AliasSequenceID, isFragile)
				if rv >= 0 {
					lastReductionVersion = rv
				}

			case ParseActionAccept:
				p.log(LogTypeParse, "accept")
				p.accept(v, lookahead)
				return

			case ParseActionRecover:
				if lookahead.childCount() > 0 {
					p.breakdownLookahead(&lookahead, stateNone, cursor)
				}
				p.recoverVersion(v, lookahead)
				return
			}
		}

		if lastReductionVersion != -1 {
			p.stack.renumber(lastReductionVersion, v)
			p.log(LogTypeParse, "renumber version:%d", v)
			state = p.stack.state(v)
			entry = p.language.tableEntry(state, lookahead.firstLeafSymbol)
			continue
		}

		if state == errorState {
			p.recoverVersion(v, lookahead)
			return
		}

		if p.breakdownTopOfStack(v) {
			state = p.stack.state(v)
			entry = p.language.tableEntry(state, lookahead.firstLeafSymbol)
			continue
		}

		p.log(LogTypeParse, "detect_error lookahead:%s", p.language.SymbolName(lookahead.firstLeafSymbol))
		p.stack.pause(v, lookahead.firstLeafSymbol)
		p.pool.release(lookahead)
		return
	}
}

// breakdownLookahead descends into a reused internal node until its head
// was parsed in the given state, re-exposing finer-grained tokens. The
// shared cursor follows along so subsequent reuse stays aligned.
func (p *Parser) breakdownLookahead(lookahead **Subtree, state StateID, cursor *reusableNode) {
	didDescend := false
	t := cursor.tree()
	for t != nil && t.childCount() > 0 && (t.parseState != state || t.isFragile()) {
		if !cursor.descend() {
			break
		}
		t = cursor.tree()
		didDescend = true
	}
	if didDescend && t != nil {
		retainSubtree(t)
		p.pool.release(*lookahead)
		*lookahead = t
		cursor.advance()
		p.clearTokenCache()
	}
}

// shift pushes the lookahead onto a version.
func (p *Parser) shift(v int, state StateID, lookahead *Subtree, extra bool) {
	if extra != lookahead.extra {
		if lookahead.refCount > 1 {
			clone := p.pool.makeCopy(lookahead)
			p.pool.release(lookahead)
			lookahead = clone
		}
		lookahead.extra = extra
	}

	isPending := lookahead.childCount() > 0
	hasExternal := lookahead.hasExternalTokens
	p.stack.push(v, lookahead, isPending, state)
	if hasExternal {
		p.stack.setLastExternalToken(v, subtreeLastExternalToken(lookahead))
	}
	// A consumed token invalidates the single-slot token cache.
	p.clearTokenCache()
}

// reduce pops count children from a version (across every distinct stack
// path), wraps them in a new parent, and pushes the parent at the GOTO
// state. Returns the first version a parent was pushed to, or -1.
func (p *Parser) reduce(v int, sym Symbol, count int, dynamicPrecedence int32, aliasSequenceID uint16, isFragile bool) int {
	initialVersionCount := p.stack.versionCount()
	slices := p.stack.popCount(v, count)
	if len(slices) == 0 {
		return -1
	}

	removed := 0
	for i := 0; i < len(slices); i++ {
		slice := slices[i]
		sliceVersion := slice.version - removed

		children := p.removeTrailingExtras(slice.subtrees)
		extras := append([]*Subtree(nil), p.trailingExtras...)
		parent := p.pool.newNode(sym, children, aliasSequenceID, p.language)

		// A pop that collapsed formerly distinct versions yields several
		// slices with one version: keep the best child array.
		for i+1 < len(slices) && slices[i+1].version == slice.version {
			i++
			altChildren := p.removeTrailingExtras(slices[i].subtrees)
			altExtras := append([]*Subtree(nil), p.trailingExtras...)
			candidate := p.pool.newNode(sym, altChildren, aliasSequenceID, p.language)
			if p.selectTree(parent, candidate) {
				p.pool.releaseAll(extras)
				p.pool.release(parent)
				parent = candidate
				extras = altExtras
			} else {
				p.pool.releaseAll(altExtras)
				p.pool.release(candidate)
			}
		}

		state := p.stack.state(sliceVersion)
		nextState := p.language.NextState(state, sym)
		if isFragile || p.inAmbiguity || len(slices) > 1 || initialVersionCount > 1 {
			parent.fragileLeft = true
			parent.fragileRight = true
			parent.parseState = stateNone
		} else {
			parent.parseState = state
		}
		parent.dynamicPrecedence += dynamicPrecedence

		p.stack.push(sliceVersion, parent, false, nextState)
		for _, extra := range extras {
			p.stack.push(sliceVersion, extra, false, nextState)
		}

		for j := 0; j < sliceVersion; j++ {
			if j == v {
				continue
			}
			if p.stack.merge(j, sliceVersion) {
				removed++
				break
			}
		}
	}

	if p.stack.versionCount() > initialVersionCount {
		return initialVersionCount
	}
	return -1
}

// removeTrailingExtras splits trailing extra trees off a child array into
// p.trailingExtras (in stack order) and returns the rest.
func (p *Parser) removeTrailingExtras(trees []*Subtree) []*Subtree {
	p.trailingExtras = p.trailingExtras[:0]
	end := len(trees)
	for end > 0 && trees[end-1].extra {
		end--
	}
	p.trailingExtras = append(p.trailingExtras, trees[end:]...)
	return trees[:end]
}

// accept finishes a version: the entire stack is popped, the last
// non-extra tree becomes the root (its children spliced together with
// any surrounding extras), and the result competes with any previously
// finished tree.
func (p *Parser) accept(v int, lookahead *Subtree) {
	if lookahead.refCount > 1 {
		clone := p.pool.makeCopy(lookahead)
		p.pool.release(lookahead)
		lookahead = clone
	}
	lookahead.extra = true
	p.stack.push(v, lookahead, false, initialState)

	previousVersionCount := p.stack.versionCount()
	slices := p.stack.popAll(v)
	for _, slice := range slices {
		trees := slice.subtrees

		rootIndex := -1
		for i := len(trees) - 1; i >= 0; i-- {
			if !trees[i].extra {
				rootIndex = i
				break
			}
		}
		if rootIndex < 0 {
			p.pool.releaseAll(trees)
			continue
		}

		rootTree := trees[rootIndex]
		children := make([]*Subtree, 0, len(trees)-1+rootTree.childCount())
		children = append(children, trees[:rootIndex]...)
		for _, child := range rootTree.children {
			children = append(children, retainSubtree(child))
		}
		children = append(children, trees[rootIndex+1:]...)
		root := p.pool.newNode(rootTree.symbol, children, rootTree.aliasSequenceID, p.language)
		p.pool.release(rootTree)

		p.acceptCount++
		if p.finishedTree == nil {
			p.finishedTree = root
		} else if p.selectTree(p.finishedTree, root) {
			p.pool.release(p.finishedTree)
			p.finishedTree = root
		} else {
			p.pool.release(root)
		}
	}

	// Remove the versions created by the pop and retire this one.
	for w := p.stack.versionCount() - 1; w >= previousVersionCount; w-- {
		p.stack.removeVersion(w)
	}
	p.stack.halt(v)
}

// breakdownTopOfStack pops pending entries (reused internal nodes) off a
// version and re-pushes their children one by one, re-exposing tokens
// for finer-grained parsing. Reports whether anything changed.
func (p *Parser) breakdownTopOfStack(v int) bool {
	didBreakDown := false
	pending := true
	for pending {
		pending = false
		slices := p.stack.popPending(v)
		if len(slices) == 0 {
			break
		}
		didBreakDown = true
		for _, slice := range slices {
			state := p.stack.state(slice.version)
			parent := slice.subtrees[0]
			for _, child := range parent.children {
				pending = child.childCount() > 0
				if child.isErrorNode() {
					state = errorState
				} else if !child.extra {
					state = p.language.NextState(state, child.symbol)
				}
				p.stack.push(slice.version, retainSubtree(child), pending, state)
			}
			for _, tree := range slice.subtrees[1:] {
				p.stack.push(slice.version, tree, false, state)
			}
			p.log(LogTypeParse, "breakdown_top_of_stack tree:%s", p.language.SymbolName(parent.symbol))
			p.pool.release(parent)
			p.stack.renumber(slice.version, v)
		}
	}
	if didBreakDown {
		p.clearTokenCache()
	}
	return didBreakDown
}

// versionStatus summarizes a version for pruning.
func (p *Parser) versionStatus(v int) errorStatus {
	cost := p.stack.errorCost(v)
	isPaused := p.stack.isPaused(v)
	if isPaused {
		cost += errorCostPerSkippedTree
	}
	return errorStatus{
		cost:              cost,
		nodeCount:         p.stack.nodeCountSinceError(v),
		dynamicPrecedence: p.stack.dynamicPrecedence(v),
		isInError:         isPaused || p.stack.state(v) == errorState,
	}
}

// condenseStack merges and prunes stack versions after each outer pass.
// It returns the minimum error cost among surviving versions and whether
// any version is active, counting the paused version (at most one) that
// this call resumed.
func (p *Parser) condenseStack() (uint32, bool) {
	madeChanges := true
	for madeChanges {
		madeChanges = false
		for i := 0; i < p.stack.versionCount(); i++ {
			if p.stack.isHalted(i) {
				p.stack.removeVersion(i)
				i--
				madeChanges = true
				continue
			}
			statusI := p.versionStatus(i)

			for j := 0; j < i; j++ {
				if p.stack.isHalted(j) {
					continue
				}
				statusJ := p.versionStatus(j)

				removedI := false
				switch compareErrorStatus(statusJ, statusI) {
				case errorComparisonTakeLeft:
					madeChanges = true
					p.stack.removeVersion(i)
					i--
					removedI = true
				case errorComparisonPreferLeft, errorComparisonNone:
					if p.stack.merge(j, i) {
						madeChanges = true
						i--
						removedI = true
					}
				case errorComparisonPreferRight:
					if p.stack.merge(j, i) {
						madeChanges = true
						i--
						removedI = true
					} else {
						madeChanges = true
						p.stack.swapVersions(j, i)
						statusI = p.versionStatus(i)
					}
				case errorComparisonTakeRight:
					madeChanges = true
					p.stack.removeVersion(j)
					i--
					j--
				}
				if removedI {
					break
				}
			}
		}
	}

	for p.stack.versionCount() > maxVersionCount {
		p.stack.removeVersion(p.stack.versionCount() - 1)
	}

	minErrorCost := uint32(0)
	haveMin := false
	anyActive := false
	resumedOne := false
	for v := 0; v < p.stack.versionCount(); v++ {
		if p.stack.isPaused(v) {
			if !resumedOne && p.acceptCount < maxVersionCount {
				resumedOne = true
				lookaheadSymbol := p.stack.resume(v)
				p.log(LogTypeParse, "resume version:%d", v)
				p.handleError(v, lookaheadSymbol)
				anyActive = true
			}
		} else if p.stack.isActive(v) {
			anyActive = true
		}
		if !p.stack.isHalted(v) {
			cost := p.stack.errorCost(v)
			if !haveMin || cost < minErrorCost {
				minErrorCost = cost
				haveMin = true
			}
		}
	}
	return minErrorCost, anyActive
}

// doAllPotentialReductions enumerates every reduction possible from a
// version (and the versions those reductions fork), regardless of the
// lookahead when lookaheadSymbol is 0 or restricted to it otherwise.
// Reports whether some resulting state can shift the lookahead symbol.
func (p *Parser) doAllPotentialReductions(startingVersion int, lookaheadSymbol Symbol) bool {
	initialVersionCount := p.stack.versionCount()
	canShiftLookahead := false

	version := startingVersion
	for iteration := 0; ; iteration++ {
		versionCount := p.stack.versionCount()
		if version >= versionCount {
			break
		}

		merged := false
		for w := initialVersionCount; w < version; w++ {
			if p.stack.merge(w, version) {
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		state := p.stack.state(version)
		hasShiftAction := false
		p.reduceActions = p.reduceActions[:0]

		firstSymbol, endSymbol := Symbol(1), Symbol(p.language.TokenCount)
		if lookaheadSymbol != 0 {
			firstSymbol, endSymbol = lookaheadSymbol, lookaheadSymbol+1
		}

		for sym := firstSymbol; sym < endSymbol; sym++ {
			entry := p.language.tableEntry(state, sym)
			for _, action := range entry.Actions {
				switch action.Type {
				case ParseActionShift, ParseActionRecover:
					if !action.Extra && !action.Repetition {
						hasShiftAction = true
					}
				case ParseActionReduce:
					if action.ChildCount > 0 {
						p.addReduceAction(reduceAction{
							symbol:            action.Symbol,
							count:             int(action.ChildCount),
							dynamicPrecedence: int32(action.DynamicPrecedence),
							aliasSequenceID:   action.AliasSequenceID,
						})
					}
				}
			}
		}

		reductionVersion := -1
		for _, ra := range p.reduceActions {
			rv := p.reduce(version, ra.symbol, ra.count, ra.dynamicPrecedence, ra.aliasSequenceID, true)
			if rv >= 0 {
				reductionVersion = rv
			}
		}

		if hasShiftAction {
			canShiftLookahead = true
		} else if reductionVersion != -1 && iteration < maxVersionCount {
			p.stack.renumber(reductionVersion, version)
			continue
		} else if lookaheadSymbol != 0 {
			p.stack.removeVersion(version)
			if version == startingVersion {
				version = versionCount - 1
			}
			continue
		}

		if version == startingVersion {
			version = versionCount
		} else {
			version++
		}
	}

	return canShiftLookahead
}

// addReduceAction inserts a reduce action keeping the set deduplicated
// and ordered so that larger child counts run first per symbol.
func (p *Parser) addReduceAction(ra reduceAction) {
	insert := len(p.reduceActions)
	for i, existing := range p.reduceActions {
		if existing == ra {
			return
		}
		if existing.symbol > ra.symbol ||
			(existing.symbol == ra.symbol && existing.count < ra.count) {
			insert = i
			break
		}
	}
	p.reduceActions = append(p.reduceActions, reduceAction{})
	copy(p.reduceActions[insert+1:], p.reduceActions[insert:])
	p.reduceActions[insert] = ra
}

// handleError is invoked when a version resumes after pausing on a
// lookahead with no action. It collapses the stack through every
// possible reduction, tries to insert a single missing token that would
// unblock the lookahead, and otherwise pushes an error-state
// discontinuity, merging all forked versions back together.
func (p *Parser) handleError(v int, lookaheadSymbol Symbol) {
	previousVersionCount := p.stack.versionCount()

	p.doAllPotentialReductions(v, 0)
	versionCount := p.stack.versionCount()

	didInsertMissingToken := false
	insertedVersion := -1
outer:
	for w := v; w < versionCount && w < p.stack.versionCount(); {
		state := p.stack.state(w)
		for missing := Symbol(1); uint32(missing) < p.language.TokenCount; missing++ {
			stateAfterMissing := p.language.NextState(state, missing)
			if stateAfterMissing == 0 || stateAfterMissing == state {
				continue
			}
			if !p.language.hasReduceAction(stateAfterMissing, lookaheadSymbol) {
				continue
			}
			mv := p.stack.copyVersion(w)
			missingTree := p.pool.newMissingLeaf(missing, p.language)
			p.stack.push(mv, missingTree, false, stateAfterMissing)
			if p.doAllPotentialReductions(mv, lookaheadSymbol) {
				p.log(LogTypeParse, "recover_with_missing symbol:%s, state:%d",
					p.language.SymbolName(missing), stateAfterMissing)
				didInsertMissingToken = true
				insertedVersion = mv
				break outer
			}
			if mv < p.stack.versionCount() {
				p.stack.removeVersion(mv)
			}
		}
		if w == v {
			w = previousVersionCount
		} else {
			w++
		}
	}

	if didInsertMissingToken && insertedVersion < p.stack.versionCount() {
		p.stack.renumber(insertedVersion, v)
		for p.stack.versionCount() > previousVersionCount {
			p.stack.removeVersion(p.stack.versionCount() - 1)
		}
		return
	}

	// Push a discontinuity onto every surviving version and merge them
	// all back into v under the error state.
	p.stack.push(v, nil, false, errorState)
	for p.stack.versionCount() > previousVersionCount {
		p.stack.push(previousVersionCount, nil, false, errorState)
		if !p.stack.merge(v, previousVersionCount) {
			p.stack.removeVersion(previousVersionCount)
		}
	}

	p.stack.recordSummary(v, maxSummaryDepth)
	p.log(LogTypeParse, "handle_error")
}

// betterVersionExists reports whether some other version (or a finished
// tree) dominates a version whose projected cost is given.
func (p *Parser) betterVersionExists(v int, isInError bool, cost uint32) bool {
	if p.finishedTree != nil && p.finishedTree.errorCost <= cost {
		return true
	}
	position := p.stack.position(v)
	status := errorStatus{
		cost:              cost,
		isInError:         isInError,
		dynamicPrecedence: p.stack.dynamicPrecedence(v),
		nodeCount:         p.stack.nodeCountSinceError(v),
	}
	for w := 0; w < p.stack.versionCount(); w++ {
		if w == v || p.stack.isHalted(w) || p.stack.position(w).Bytes < position.Bytes {
			continue
		}
		if compareErrorStatus(status, p.versionStatus(w)) == errorComparisonTakeRight {
			return true
		}
	}
	return false
}

// recoverVersion runs when a version sits in the error state. It tries
// to pop back to a summary state that can consume the lookahead; failing
// that, at EOF it wraps everything in an error root and accepts, and
// otherwise skips the lookahead into an error-repeat subtree.
func (p *Parser) recoverVersion(v int, lookahead *Subtree) {
	previousVersionCount := p.stack.versionCount()
	position := p.stack.position(v)
	summary := p.stack.summary(v)
	nodeCountSinceError := p.stack.nodeCountSinceError(v)
	currentErrorCost := p.stack.errorCost(v)

	didRecover := false
	if summary != nil && !lookahead.isErrorNode() {
		for _, entry := range summary {
			if entry.state == errorState {
				continue
			}
			if entry.position.Bytes == position.Bytes {
				continue
			}
			depth := entry.depth
			if nodeCountSinceError > 0 {
				depth++
			}

			wouldMerge := false
			for w := 0; w < previousVersionCount; w++ {
				if w != v && p.stack.state(w) == entry.state &&
					p.stack.position(w).Bytes == position.Bytes {
					wouldMerge = true
					break
				}
			}
			if wouldMerge {
				continue
			}

			newCost := currentErrorCost +
				entry.depth*errorCostPerSkippedTree +
				(position.Bytes-entry.position.Bytes)*errorCostPerSkippedChar +
				(position.Extent.Row-entry.position.Extent.Row)*errorCostPerSkippedLine
			if p.betterVersionExists(v, false, newCost) {
				break
			}

			if p.language.hasActions(entry.state, lookahead.firstLeafSymbol) {
				if p.recoverToState(v, depth, entry.state) {
					didRecover = true
					p.log(LogTypeParse, "recover_to_previous state:%d, depth:%d", entry.state, depth)
					break
				}
			}
		}
	}

	// Drop versions stranded by the recovery scan.
	for w := p.stack.versionCount() - 1; w >= previousVersionCount; w-- {
		if !p.stack.isActive(w) {
			p.stack.removeVersion(w)
		}
	}

	if didRecover {
		p.pool.release(lookahead)
		return
	}

	if lookahead.isEOF() {
		p.log(LogTypeParse, "recover_eof")
		root := p.pool.newErrorNode(nil, false, p.language)
		p.stack.push(v, root, false, initialState)
		p.accept(v, lookahead)
		return
	}

	newCost := currentErrorCost + errorCostPerSkippedTree +
		lookahead.totalBytes()*errorCostPerSkippedChar +
		lookahead.totalLength().Extent.Row*errorCostPerSkippedLine
	if p.betterVersionExists(v, true, newCost) {
		p.stack.halt(v)
		p.pool.release(lookahead)
		p.log(LogTypeParse, "bail_on_recovery")
		return
	}

	p.log(LogTypeParse, "skip_token symbol:%s", p.language.SymbolName(lookahead.symbol))
	if lookahead.hasExternalTokens {
		p.stack.setLastExternalToken(v, lookahead)
	}

	errorRepeat := p.pool.newNode(symbolErrorRepeat, []*Subtree{lookahead}, 0, p.language)

	// If tokens have already been skipped there is an error subtree on
	// top of the stack; pop it and wrap the two together so consecutive
	// skipped tokens chain into one region.
	if nodeCountSinceError > 0 {
		slices := p.stack.popCount(v, 1)
		if len(slices) > 0 {
			slice := slices[0]
			for _, extra := range slices[1:] {
				if extra.version != slice.version {
					p.stack.halt(extra.version)
				}
				p.pool.releaseAll(extra.subtrees)
			}
			children := append(slice.subtrees, errorRepeat)
			errorRepeat = p.pool.newNode(symbolErrorRepeat, children, 0, p.language)
			p.stack.renumber(slice.version, v)
			for w := p.stack.versionCount() - 1; w >= previousVersionCount; w-- {
				if p.stack.isHalted(w) {
					p.stack.removeVersion(w)
				}
			}
		}
	}

	p.stack.push(v, errorRepeat, false, errorState)
}

// recoverToState pops depth entries off a version and, for slices whose
// head reaches the goal state, wraps the popped content in an extra
// error node pushed at that state.
func (p *Parser) recoverToState(v int, depth uint32, goal StateID) bool {
	slices := p.stack.popCount(v, int(depth))
	recoveredVersion := -1

	for _, slice := range slices {
		if slice.version == recoveredVersion {
			p.pool.releaseAll(slice.subtrees)
			continue
		}
		if p.stack.state(slice.version) != goal {
			p.stack.halt(slice.version)
			p.pool.releaseAll(slice.subtrees)
			continue
		}

		trees := slice.subtrees
		if errTrees := p.stack.popError(slice.version); len(errTrees) > 0 {
			errTree := errTrees[0]
			if errTree.childCount() > 0 {
				spliced := make([]*Subtree, 0, errTree.childCount()+len(trees))
				for _, c := range errTree.children {
					spliced = append(spliced, retainSubtree(c))
				}
				spliced = append(spliced, trees...)
				trees = spliced
				p.pool.release(errTree)
			} else {
				trees = append([]*Subtree{errTree}, trees...)
			}
		}

		children := p.removeTrailingExtras(trees)
		extras := append([]*Subtree(nil), p.trailingExtras...)
		if len(children) > 0 {
			errNode := p.pool.newErrorNode(children, true, p.language)
			p.stack.push(slice.version, errNode, false, goal)
		}
		for _, extra := range extras {
			p.stack.push(slice.version, extra, false, goal)
		}
		recoveredVersion = slice.version
	}

	if recoveredVersion >= 0 {
		p.stack.renumber(recoveredVersion, v)
		return true
	}
	return false
}

// haltParse finishes a parse early: the rest of the input is lexed into
// one error leaf and everything on the first surviving version is
// wrapped under an error root.
func (p *Parser) haltParse() {
	p.log(LogTypeParse, "halting_parse")

	v := -1
	for w := 0; w < p.stack.versionCount(); w++ {
		if !p.stack.isHalted(w) {
			v = w
			break
		}
	}
	if v < 0 {
		return
	}

	position := p.stack.position(v)
	remaining := p.lexer.remainingLength(position)
	if remaining.Bytes > 0 {
		filler := p.pool.newErrorLeaf(remaining, lengthZero, remaining.Bytes, 0, p.language)
		filler.parseState = errorState
		p.stack.push(v, filler, false, errorState)
	}

	slices := p.stack.popAll(v)
	for si, slice := range slices {
		if si == 0 && len(slice.subtrees) > 0 {
			root := p.pool.newErrorNode(slice.subtrees, false, p.language)
			eof := p.pool.newLeaf(symbolEnd, lengthZero, lengthZero, p.language)
			rootChildren := []*Subtree{root, eof}
			finished := p.pool.newErrorNode(rootChildren, false, p.language)
			if p.finishedTree == nil {
				p.finishedTree = finished
			} else if p.selectTree(p.finishedTree, finished) {
				p.pool.release(p.finishedTree)
				p.finishedTree = finished
			} else {
				p.pool.release(finished)
			}
		} else {
			p.pool.releaseAll(slice.subtrees)
		}
	}
	for w := p.stack.versionCount() - 1; w >= 0; w-- {
		p.stack.halt(w)
	}
}

// wrapRemainingInput is the last-resort result when every version halted
// without accepting.
func (p *Parser) wrapRemainingInput() *Subtree {
	remaining := p.lexer.remainingLength(lengthZero)
	var children []*Subtree
	if remaining.Bytes > 0 {
		children = append(children, p.pool.newErrorLeaf(remaining, lengthZero, remaining.Bytes, 0, p.language))
	}
	return p.pool.newErrorNode(children, false, p.language)
}

// selectTree decides between two competing subtrees covering the same
// range. It reports whether the right tree should replace the left.
func (p *Parser) selectTree(left, right *Subtree) bool {
	if left == nil {
		return true
	}
	if right == nil {
		return false
	}
	if right.errorCost < left.errorCost {
		p.log(LogTypeParse, "select_smaller_error symbol:%s", p.language.SymbolName(right.symbol))
		return true
	}
	if left.errorCost < right.errorCost {
		return false
	}
	if right.dynamicPrecedence > left.dynamicPrecedence {
		p.log(LogTypeParse, "select_higher_precedence symbol:%s prec:%d",
			p.language.SymbolName(right.symbol), right.dynamicPrecedence)
		return true
	}
	if left.dynamicPrecedence > right.dynamicPrecedence {
		return false
	}
	if left.errorCost > 0 {
		return false
	}
	return compareSubtrees(left, right) > 0
}
