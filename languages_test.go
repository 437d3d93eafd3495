package gotreesitter

// Hand-built language tables used across the test suite. State 0 is the
// error state and state 1 the start state, matching generated grammars.

// buildNumberLanguage is a left-recursive arithmetic grammar:
//
//	expression -> NUMBER
//	expression -> expression "+" NUMBER
//
// Symbols:
//
//	0: end
//	1: NUMBER   (terminal, named)
//	2: "+"      (terminal, anonymous)
//	3: expression (nonterminal, named)
//
// States:
//
//	1 (start):        NUMBER -> shift 2, expression -> goto 3
//	2 (saw NUMBER):   reduce expression -> NUMBER
//	3 (saw expr):     "+" -> shift 4, end -> accept
//	4 (saw expr +):   NUMBER -> shift 5
//	5 (saw e + N):    reduce expression -> expression "+" NUMBER
func buildNumberLanguage() *Language {
	return &Language{
		Name:        "numbers",
		SymbolCount: 4,
		TokenCount:  3,
		StateCount:  6,

		SymbolNames: []string{"end", "number", "+", "expression"},
		SymbolMetadata: []SymbolMetadata{
			{},
			{Visible: true, Named: true},
			{Visible: true},
			{Visible: true, Named: true},
		},

		ParseActions: []TableEntry{
			{},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 2}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 1}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 4}}},
			{Actions: []ParseAction{{Type: ParseActionAccept}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 5}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 3}}},
		},

		// Columns: end, number, +, expression
		ParseTable: [][]uint16{
			{0, 0, 0, 0},
			{0, 1, 0, 3},
			{2, 0, 2, 0},
			{4, 0, 3, 0},
			{0, 5, 0, 0},
			{6, 0, 6, 0},
		},

		LexModes: []LexMode{{}, {}, {}, {}, {}, {}},
		LexFn:    CompileLexFn(numberLexStates()),
	}
}

func numberLexStates() []LexState {
	return []LexState{
		// 0: start
		{
			Default: -1, EOF: -1,
			Transitions: []LexTransition{
				{Lo: '0', Hi: '9', NextState: 1},
				{Lo: '+', Hi: '+', NextState: 2},
				{Lo: ' ', Hi: ' ', NextState: 3},
				{Lo: '\t', Hi: '\t', NextState: 3},
				{Lo: '\n', Hi: '\n', NextState: 3},
			},
		},
		// 1: in number
		{
			AcceptToken: 1,
			Default:     -1, EOF: -1,
			Transitions: []LexTransition{{Lo: '0', Hi: '9', NextState: 1}},
		},
		// 2: saw '+'
		{AcceptToken: 2, Default: -1, EOF: -1},
		// 3: whitespace
		{
			Skip:    true,
			Default: -1, EOF: -1,
			Transitions: []LexTransition{
				{Lo: ' ', Hi: ' ', NextState: 3},
				{Lo: '\t', Hi: '\t', NextState: 3},
				{Lo: '\n', Hi: '\n', NextState: 3},
			},
		},
	}
}

// buildWordLanguage accepts zero or more lowercase words:
//
//	program -> (empty) | program word | word
//
// Symbols: 0 end, 1 word, 2 program.
//
// States:
//
//	1 (start):       word -> shift 2, program -> goto 3, end -> reduce program (0 children)
//	2 (saw word):    reduce program -> word
//	3 (program):     word -> shift 4, end -> accept
//	4 (program word): reduce program -> program word
func buildWordLanguage() *Language {
	return &Language{
		Name:        "words",
		SymbolCount: 3,
		TokenCount:  2,
		StateCount:  5,

		SymbolNames: []string{"end", "word", "program"},
		SymbolMetadata: []SymbolMetadata{
			{},
			{Visible: true, Named: true},
			{Visible: true, Named: true},
		},

		ParseActions: []TableEntry{
			{},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 2}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 2, ChildCount: 1}}},
			{Actions: []ParseAction{{Type: ParseActionAccept}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 4}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 2, ChildCount: 2}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 2, ChildCount: 0}}},
		},

		// Columns: end, word, program
		ParseTable: [][]uint16{
			{0, 0, 0},
			{6, 1, 3},
			{2, 2, 0},
			{3, 4, 0},
			{5, 5, 0},
		},

		LexModes: []LexMode{{}, {}, {}, {}, {}},
		LexFn:    CompileLexFn(wordLexStates()),
	}
}

func wordLexStates() []LexState {
	return []LexState{
		{
			Default: -1, EOF: -1,
			Transitions: []LexTransition{
				{Lo: 'a', Hi: 'z', NextState: 1},
				{Lo: ' ', Hi: ' ', NextState: 2},
				{Lo: '\t', Hi: '\t', NextState: 2},
				{Lo: '\n', Hi: '\n', NextState: 2},
			},
		},
		{
			AcceptToken: 1,
			Default:     -1, EOF: -1,
			Transitions: []LexTransition{{Lo: 'a', Hi: 'z', NextState: 1}},
		},
		{
			Skip:    true,
			Default: -1, EOF: -1,
			Transitions: []LexTransition{
				{Lo: ' ', Hi: ' ', NextState: 2},
				{Lo: '\t', Hi: '\t', NextState: 2},
				{Lo: '\n', Hi: '\n', NextState: 2},
			},
		},
	}
}

// buildParenLanguage parses "()" two ways, to exercise GLR forking and
// dynamic-precedence tie breaking:
//
//	root -> a | b
//	a    -> "(" ")"   (dynamic precedence 10)
//	b    -> "(" ")"   (dynamic precedence 20)
//
// Symbols: 0 end, 1 "(", 2 ")", 3 root, 4 a, 5 b.
func buildParenLanguage() *Language {
	return &Language{
		Name:        "parens",
		SymbolCount: 6,
		TokenCount:  3,
		StateCount:  7,

		SymbolNames: []string{"end", "(", ")", "root", "a", "b"},
		SymbolMetadata: []SymbolMetadata{
			{},
			{Visible: true},
			{Visible: true},
			{Visible: true, Named: true},
			{Visible: true, Named: true},
			{Visible: true, Named: true},
		},

		ParseActions: []TableEntry{
			{},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 2}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 6}}},
			{Actions: []ParseAction{{Type: ParseActionAccept}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 1}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 1}}},
			{Actions: []ParseAction{
				{Type: ParseActionReduce, Symbol: 4, ChildCount: 2, DynamicPrecedence: 10},
				{Type: ParseActionReduce, Symbol: 5, ChildCount: 2, DynamicPrecedence: 20},
			}},
		},

		// Columns: end, (, ), root, a, b
		ParseTable: [][]uint16{
			{0, 0, 0, 0, 0, 0},
			{0, 1, 0, 3, 4, 5},
			{0, 0, 2, 0, 0, 0},
			{3, 0, 0, 0, 0, 0},
			{4, 0, 0, 0, 0, 0},
			{5, 0, 0, 0, 0, 0},
			{6, 0, 0, 0, 0, 0},
		},

		LexModes: []LexMode{{}, {}, {}, {}, {}, {}, {}},
		LexFn:    CompileLexFn(parenLexStates()),
	}
}

func parenLexStates() []LexState {
	return []LexState{
		{
			Default: -1, EOF: -1,
			Transitions: []LexTransition{
				{Lo: '(', Hi: '(', NextState: 1},
				{Lo: ')', Hi: ')', NextState: 2},
			},
		},
		{AcceptToken: 1, Default: -1, EOF: -1},
		{AcceptToken: 2, Default: -1, EOF: -1},
	}
}

// buildStatementLanguage parses semicolon-terminated statements, the
// shape where missing-token insertion naturally applies:
//
//	program -> program stmt | stmt
//	stmt    -> NUMBER ";"
//
// Symbols: 0 end, 1 NUMBER, 2 ";", 3 program, 4 stmt.
func buildStatementLanguage() *Language {
	return &Language{
		Name:        "statements",
		SymbolCount: 5,
		TokenCount:  3,
		StateCount:  7,

		SymbolNames: []string{"end", "number", ";", "program", "statement"},
		SymbolMetadata: []SymbolMetadata{
			{},
			{Visible: true, Named: true},
			{Visible: true},
			{Visible: true, Named: true},
			{Visible: true, Named: true},
		},

		ParseActions: []TableEntry{
			{},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 2}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 5}}},
			{Actions: []ParseAction{{Type: ParseActionAccept}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 1}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 4, ChildCount: 2}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 2}}},
		},

		// Columns: end, number, ;, program, stmt
		ParseTable: [][]uint16{
			{0, 0, 0, 0, 0},
			{0, 1, 0, 3, 4},
			{0, 0, 2, 0, 0},
			{3, 1, 0, 0, 6},
			{4, 4, 0, 0, 0},
			{5, 5, 0, 0, 0},
			{6, 6, 0, 0, 0},
		},

		LexModes: []LexMode{{}, {}, {}, {}, {}, {}, {}},
		LexFn:    CompileLexFn(statementLexStates()),
	}
}

func statementLexStates() []LexState {
	return []LexState{
		{
			Default: -1, EOF: -1,
			Transitions: []LexTransition{
				{Lo: '0', Hi: '9', NextState: 1},
				{Lo: ';', Hi: ';', NextState: 2},
				{Lo: ' ', Hi: ' ', NextState: 3},
				{Lo: '\n', Hi: '\n', NextState: 3},
			},
		},
		{
			AcceptToken: 1,
			Default:     -1, EOF: -1,
			Transitions: []LexTransition{{Lo: '0', Hi: '9', NextState: 1}},
		},
		{AcceptToken: 2, Default: -1, EOF: -1},
		{
			Skip:    true,
			Default: -1, EOF: -1,
			Transitions: []LexTransition{
				{Lo: ' ', Hi: ' ', NextState: 3},
				{Lo: '\n', Hi: '\n', NextState: 3},
			},
		},
	}
}

// buildKeywordLanguage recognizes "if" via the keyword-capture mechanism:
// the main lexer only knows identifiers, and a second keyword lexer
// re-examines each identifier.
//
//	program -> "if" identifier
//
// Symbols: 0 end, 1 identifier, 2 "if", 3 program.
func buildKeywordLanguage() *Language {
	return &Language{
		Name:        "keywords",
		SymbolCount: 4,
		TokenCount:  3,
		StateCount:  5,

		SymbolNames: []string{"end", "identifier", "if", "program"},
		SymbolMetadata: []SymbolMetadata{
			{},
			{Visible: true, Named: true},
			{Visible: true},
			{Visible: true, Named: true},
		},

		ParseActions: []TableEntry{
			{},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 2}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 4}}},
			{Actions: []ParseAction{{Type: ParseActionAccept}}},
			{Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 2}}},
		},

		// Columns: end, identifier, if, program
		ParseTable: [][]uint16{
			{0, 0, 0, 0},
			{0, 0, 1, 3},
			{0, 2, 0, 0},
			{3, 0, 0, 0},
			{4, 0, 0, 0},
		},

		LexModes:            []LexMode{{}, {}, {}, {}, {}},
		LexFn:               CompileLexFn(wordLexStates()),
		KeywordLexFn:        CompileLexFn(ifKeywordLexStates()),
		KeywordCaptureToken: 1,
	}
}

func ifKeywordLexStates() []LexState {
	return []LexState{
		{
			Default: -1, EOF: -1,
			Transitions: []LexTransition{{Lo: 'i', Hi: 'i', NextState: 1}},
		},
		{
			Default: -1, EOF: -1,
			Transitions: []LexTransition{{Lo: 'f', Hi: 'f', NextState: 2}},
		},
		{AcceptToken: 2, Default: -1, EOF: -1},
	}
}

// collectLeaves gathers every leaf of a tree in byte order along with its
// absolute padded range.
type leafSpan struct {
	symbol     Symbol
	startByte  uint32 // where the leaf's padding begins
	endByte    uint32 // end of content
	size       uint32
	subtree    *Subtree
	parseState StateID
}

func collectLeaves(t *Tree) []leafSpan {
	var leaves []leafSpan
	var walk func(s *Subtree, pos Length)
	walk = func(s *Subtree, pos Length) {
		if s.childCount() == 0 {
			leaves = append(leaves, leafSpan{
				symbol:     s.symbol,
				startByte:  pos.Bytes,
				endByte:    pos.Bytes + s.totalBytes(),
				size:       s.size.Bytes,
				subtree:    s,
				parseState: s.parseState,
			})
			return
		}
		for _, child := range s.children {
			walk(child, pos)
			pos = pos.Add(child.totalLength())
		}
	}
	if t.root != nil {
		walk(t.root, lengthZero)
	}
	return leaves
}

// checkLeafCoverage asserts the concatenated leaf ranges cover the input
// exactly, with no gap or overlap.
func checkLeafCoverage(t *Tree, inputLen int) (ok bool, covered uint32) {
	leaves := collectLeaves(t)
	var pos uint32
	for _, leaf := range leaves {
		if leaf.startByte != pos {
			return false, pos
		}
		pos = leaf.endByte
	}
	return pos == uint32(inputLen), pos
}
