// Package gotreesitter implements a pure Go tree-sitter runtime: an
// incremental, error-tolerant GLR parser driven by precompiled language
// tables.
//
// This file defines the language-table data structures that mirror
// tree-sitter's TSLanguage C struct, translated into idiomatic Go types
// with slice-based tables instead of raw pointers. The tables are
// immutable after construction and may be shared across parsers without
// synchronization.
package gotreesitter

// Symbol is a grammar symbol ID (terminal or nonterminal).
type Symbol uint16

// StateID is a parser state index.
type StateID uint16

// Reserved symbols and states.
const (
	// symbolEnd is the end-of-input token.
	symbolEnd Symbol = 0
	// symbolError is the well-known symbol ID for error nodes.
	symbolError Symbol = 65535
	// symbolErrorRepeat groups consecutive skipped tokens during recovery.
	symbolErrorRepeat Symbol = 65534

	// errorState is the reserved state in which the parser consumes
	// unexpected input. Its lex mode recognizes every token.
	errorState StateID = 0
	// initialState is the parser's start state.
	initialState StateID = 1
	// stateNone marks a subtree whose parse state was invalidated by an
	// ambiguous or multi-version reduction.
	stateNone StateID = 65535
)

// ParseActionType identifies the kind of parse action.
type ParseActionType uint8

const (
	ParseActionShift ParseActionType = iota
	ParseActionReduce
	ParseActionAccept
	ParseActionRecover
)

// ParseAction is a single parser action from the parse table.
type ParseAction struct {
	Type              ParseActionType
	State             StateID // target state (shift/recover)
	Symbol            Symbol  // reduced symbol (reduce)
	ChildCount        uint8   // children consumed (reduce)
	DynamicPrecedence int16   // precedence (reduce)
	AliasSequenceID   uint16  // which alias sequence applies (reduce)
	Extra             bool    // is this an extra token (shift)
	Repetition        bool    // is this a repetition (shift)
}

// TableEntry is the group of actions for a (state, symbol) pair.
type TableEntry struct {
	Actions            []ParseAction
	Reusable           bool
	DependsOnLookahead bool
}

// LexMode maps a parser state to its lexer configuration.
type LexMode struct {
	LexState         uint16
	ExternalLexState uint16
}

// SymbolMetadata holds display information about a symbol.
type SymbolMetadata struct {
	Visible   bool
	Named     bool
	Supertype bool
}

// LexFunc recognizes one token. It reads characters through the Lexer,
// calls MarkEnd and SetResultSymbol on success, and reports whether a
// token was recognized. The second argument selects the lex start state
// for the parser state being lexed.
type LexFunc func(lexer *Lexer, startState uint16) bool

// Language holds all data needed to parse a specific language.
type Language struct {
	Name string

	// Counts
	SymbolCount        uint32
	TokenCount         uint32
	ExternalTokenCount uint32
	StateCount         uint32
	LargeStateCount    uint32

	// Symbol metadata
	SymbolNames    []string
	SymbolMetadata []SymbolMetadata

	// Parse tables. States below LargeStateCount use the dense
	// ParseTable; the rest use the compressed SmallParseTable. Both
	// yield an index into ParseActions. For nonterminal symbols the
	// table value is the GOTO target state directly.
	ParseTable         [][]uint16
	SmallParseTable    []uint16
	SmallParseTableMap []uint32
	ParseActions       []TableEntry

	// Lex tables
	LexModes            []LexMode
	LexFn               LexFunc
	KeywordLexFn        LexFunc
	KeywordCaptureToken Symbol

	// Alias sequences: [alias_sequence_id][child_index] -> alias symbol
	// (0 = no alias).
	AliasSequences [][]Symbol

	// External scanner (nil if the language has none).
	ExternalScanner ExternalScanner
	// ExternalSymbolMap maps raw external scanner token ids to grammar
	// symbols.
	ExternalSymbolMap []Symbol
	// ExternalTokenLists holds, per external lex state, which external
	// tokens are valid. Index 0 must be the empty list.
	ExternalTokenLists [][]bool
}

// tableEntry returns the actions for a (state, symbol) pair. The zero
// entry (no actions) is returned when the table has no match.
func (l *Language) tableEntry(state StateID, sym Symbol) TableEntry {
	idx := l.actionIndex(state, sym)
	if idx == 0 || int(idx) >= len(l.ParseActions) {
		return TableEntry{}
	}
	return l.ParseActions[idx]
}

// actionIndex returns the parse-action index for (state, symbol), or 0 if
// the table has no entry.
func (l *Language) actionIndex(state StateID, sym Symbol) uint16 {
	useDense := false
	if l.LargeStateCount > 0 {
		useDense = uint32(state) < l.LargeStateCount
	} else if len(l.ParseTable) > 0 {
		useDense = int(state) < len(l.ParseTable)
	}

	if useDense {
		if int(state) < len(l.ParseTable) {
			row := l.ParseTable[state]
			if int(sym) < len(row) {
				return row[sym]
			}
		}
		return 0
	}

	smallIdx := int(state) - int(l.LargeStateCount)
	if smallIdx < 0 || smallIdx >= len(l.SmallParseTableMap) {
		return 0
	}
	offset := l.SmallParseTableMap[smallIdx]
	table := l.SmallParseTable
	if int(offset) >= len(table) {
		return 0
	}

	groupCount := table[offset]
	pos := int(offset) + 1
	for i := uint16(0); i < groupCount; i++ {
		if pos+1 >= len(table) {
			break
		}
		sectionValue := table[pos]
		symbolCount := table[pos+1]
		pos += 2
		for j := uint16(0); j < symbolCount; j++ {
			if pos >= len(table) {
				break
			}
			if table[pos] == uint16(sym) {
				return sectionValue
			}
			pos++
		}
	}
	return 0
}

// NextState returns the state the parser enters after consuming the given
// symbol in the given state. For nonterminals this is the GOTO table; for
// terminals it is derived from the shift action.
func (l *Language) NextState(state StateID, sym Symbol) StateID {
	if sym == symbolError || sym == symbolErrorRepeat {
		return errorState
	}

	if l.isNonterminal(sym) {
		return StateID(l.actionIndex(state, sym))
	}

	entry := l.tableEntry(state, sym)
	for _, act := range entry.Actions {
		if act.Type == ParseActionShift && !act.Extra {
			return act.State
		}
	}
	return 0
}

func (l *Language) isNonterminal(sym Symbol) bool {
	return l.TokenCount > 0 && uint32(sym) >= l.TokenCount && sym < symbolErrorRepeat
}

// hasActions reports whether any action exists for (state, symbol).
func (l *Language) hasActions(state StateID, sym Symbol) bool {
	return len(l.tableEntry(state, sym).Actions) > 0
}

// hasReduceAction reports whether (state, symbol) has a reduce action.
func (l *Language) hasReduceAction(state StateID, sym Symbol) bool {
	entry := l.tableEntry(state, sym)
	for _, act := range entry.Actions {
		if act.Type == ParseActionReduce {
			return true
		}
	}
	return false
}

// lexMode returns the lexer configuration for a parser state.
func (l *Language) lexMode(state StateID) LexMode {
	if int(state) < len(l.LexModes) {
		return l.LexModes[state]
	}
	return LexMode{}
}

// enabledExternalTokens returns the valid-token list for an external lex
// state, or nil when the state enables none.
func (l *Language) enabledExternalTokens(externalLexState uint16) []bool {
	if externalLexState == 0 {
		return nil
	}
	if int(externalLexState) < len(l.ExternalTokenLists) {
		return l.ExternalTokenLists[externalLexState]
	}
	return nil
}

// SymbolName returns the display name of a symbol.
func (l *Language) SymbolName(sym Symbol) string {
	switch sym {
	case symbolError:
		return "ERROR"
	case symbolErrorRepeat:
		return "_ERROR"
	}
	if int(sym) < len(l.SymbolNames) {
		return l.SymbolNames[sym]
	}
	return ""
}

// symbolMetadata returns the metadata for a symbol. ERROR nodes are
// visible and named; error-repeat wrappers are hidden so their contents
// splice into the surrounding node; everything unknown is hidden.
func (l *Language) symbolMetadata(sym Symbol) SymbolMetadata {
	if sym == symbolError {
		return SymbolMetadata{Visible: true, Named: true}
	}
	if sym == symbolErrorRepeat {
		return SymbolMetadata{Named: true}
	}
	if int(sym) < len(l.SymbolMetadata) {
		return l.SymbolMetadata[sym]
	}
	return SymbolMetadata{}
}

// aliasSequence returns the alias sequence with the given id, or nil.
func (l *Language) aliasSequence(id uint16) []Symbol {
	if id > 0 && int(id) < len(l.AliasSequences) {
		return l.AliasSequences[id]
	}
	return nil
}
