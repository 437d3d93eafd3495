package gotreesitter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type lexedToken struct {
	Symbol    Symbol
	StartByte uint32
	EndByte   uint32
	Row       uint32
	Column    uint32
}

// lexAll drives a compiled lex function over the whole input, mimicking
// the parser's repositioning between tokens.
func lexAll(t *testing.T, fn LexFunc, src string) []lexedToken {
	t.Helper()
	l := newLexer()
	l.setInput(NewByteSliceInput([]byte(src)))

	var tokens []lexedToken
	position := lengthZero
	for {
		l.moveTo(position)
		if l.AtEOF() {
			break
		}
		l.start()
		if !fn(l, 0) || !l.hasResult {
			break
		}
		l.finish()
		tokens = append(tokens, lexedToken{
			Symbol:    l.resultSymbol,
			StartByte: l.tokenStartPosition.Bytes,
			EndByte:   l.tokenEndPosition.Bytes,
			Row:       l.tokenStartPosition.Extent.Row,
			Column:    l.tokenStartPosition.Extent.Column,
		})
		position = l.tokenEndPosition
	}
	return tokens
}

func TestCompileLexFnTokens(t *testing.T) {
	fn := CompileLexFn(numberLexStates())

	got := lexAll(t, fn, "12 + 345\n+ 6")
	want := []lexedToken{
		{Symbol: 1, StartByte: 0, EndByte: 2},
		{Symbol: 2, StartByte: 3, EndByte: 4, Column: 3},
		{Symbol: 1, StartByte: 5, EndByte: 8, Column: 5},
		{Symbol: 2, StartByte: 9, EndByte: 10, Row: 1, Column: 0},
		{Symbol: 1, StartByte: 11, EndByte: 12, Row: 1, Column: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileLexFnMaximalMunch(t *testing.T) {
	fn := CompileLexFn(wordLexStates())

	got := lexAll(t, fn, "abcdef")
	want := []lexedToken{{Symbol: 1, StartByte: 0, EndByte: 6}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileLexFnRejectsUnknownInput(t *testing.T) {
	fn := CompileLexFn(wordLexStates())

	l := newLexer()
	l.setInput(NewByteSliceInput([]byte("123")))
	l.start()
	if fn(l, 0) {
		t.Error("lex fn accepted input with no matching token")
	}
}

func TestLexerAdvanceTracksPositions(t *testing.T) {
	l := newLexer()
	l.setInput(NewByteSliceInput([]byte("a\nbc")))

	if l.Lookahead() != 'a' {
		t.Fatalf("lookahead = %q, want 'a'", l.Lookahead())
	}
	l.Advance(false)
	if l.Lookahead() != '\n' {
		t.Fatalf("lookahead = %q, want newline", l.Lookahead())
	}
	l.Advance(false)
	if got := l.currentPosition; got.Bytes != 2 || got.Extent.Row != 1 || got.Extent.Column != 0 {
		t.Errorf("position after newline = %+v", got)
	}
	if l.GetColumn() != 0 {
		t.Errorf("column = %d, want 0", l.GetColumn())
	}
	l.Advance(false)
	l.Advance(false)
	if !l.AtEOF() {
		t.Error("expected EOF")
	}
	if l.Lookahead() != 0 {
		t.Errorf("lookahead at EOF = %q, want 0", l.Lookahead())
	}
}

func TestLexerSkipAdvanceMovesTokenStart(t *testing.T) {
	l := newLexer()
	l.setInput(NewByteSliceInput([]byte("  ab")))
	l.start()
	l.Advance(true)
	l.Advance(true)
	if l.tokenStartPosition.Bytes != 2 {
		t.Errorf("token start = %d, want 2", l.tokenStartPosition.Bytes)
	}
	l.Advance(false)
	l.MarkEnd()
	if l.tokenEndPosition.Bytes != 3 {
		t.Errorf("token end = %d, want 3", l.tokenEndPosition.Bytes)
	}
}

func TestLexerMoveToRewinds(t *testing.T) {
	l := newLexer()
	l.setInput(NewByteSliceInput([]byte("hello")))
	for i := 0; i < 4; i++ {
		l.Advance(false)
	}
	l.moveTo(Length{Bytes: 1, Extent: Point{Column: 1}})
	if l.Lookahead() != 'e' {
		t.Errorf("lookahead after rewind = %q, want 'e'", l.Lookahead())
	}
}

// The token cache hands the same token back to sibling stack versions at
// one position, and is invalidated by shifts.
func TestTokenCache(t *testing.T) {
	p := newTestParser(t, buildNumberLanguage())
	p.lexer.setInput(NewByteSliceInput([]byte("42")))
	p.stack.clear()

	token := p.lex(0, initialState)
	p.setCachedToken(0, nil, token)

	var entry TableEntry
	cached := p.cachedToken(initialState, 0, nil, &entry)
	if cached != token {
		t.Fatal("cache miss for identical position and state")
	}
	p.pool.release(cached)

	if miss := p.cachedToken(initialState, 1, nil, &entry); miss != nil {
		t.Error("cache hit at wrong byte index")
		p.pool.release(miss)
	}

	p.clearTokenCache()
	if miss := p.cachedToken(initialState, 0, nil, &entry); miss != nil {
		t.Error("cache hit after invalidation")
		p.pool.release(miss)
	}
	p.pool.release(token)
}

func TestLexProducesErrorLeafForUnknownBytes(t *testing.T) {
	p := newTestParser(t, buildWordLanguage())
	p.lexer.setInput(NewByteSliceInput([]byte("??? abc")))
	p.stack.clear()

	token := p.lex(0, initialState)
	if token.symbol != symbolError {
		t.Fatalf("token symbol = %d, want ERROR", token.symbol)
	}
	if token.size.Bytes != 3 {
		t.Errorf("error span = %d bytes, want 3", token.size.Bytes)
	}
	if token.lookaheadChar != '?' {
		t.Errorf("first error char = %q, want '?'", token.lookaheadChar)
	}
	if token.errorCost == 0 {
		t.Error("error leaf must carry a cost")
	}
	p.pool.release(token)
}

func TestLexEmitsEOFToken(t *testing.T) {
	p := newTestParser(t, buildWordLanguage())
	p.lexer.setInput(NewByteSliceInput(nil))
	p.stack.clear()

	token := p.lex(0, initialState)
	if token.symbol != symbolEnd {
		t.Errorf("token symbol = %d, want end", token.symbol)
	}
	if token.size.Bytes != 0 {
		t.Errorf("EOF size = %d, want 0", token.size.Bytes)
	}
	p.pool.release(token)
}

func TestLexRecordsBytesScanned(t *testing.T) {
	p := newTestParser(t, buildNumberLanguage())
	p.lexer.setInput(NewByteSliceInput([]byte("12+")))
	p.stack.clear()

	token := p.lex(0, initialState)
	// The DFA reads the '+' to decide the number ended.
	if token.bytesScanned < token.size.Bytes {
		t.Errorf("bytesScanned = %d, smaller than size %d", token.bytesScanned, token.size.Bytes)
	}
	if token.bytesScanned < 3 {
		t.Errorf("bytesScanned = %d, want >= 3 (lookahead past token)", token.bytesScanned)
	}
	p.pool.release(token)
}
