package gotreesitter

import (
	"fmt"
	"unicode/utf8"
)

// Lexer is the character-level cursor shared by internal lex functions
// and external scanners. It pulls chunks from an Input on demand and
// tracks byte/row/column positions, the current lookahead rune, and the
// token span being recognized.
type Lexer struct {
	input      Input
	chunk      []byte
	chunkStart uint32

	currentPosition Length
	lookahead       rune
	lookaheadSize   uint32
	atEOF           bool

	tokenStartPosition Length
	tokenEndPosition   Length
	tokenEndSet        bool

	resultSymbol Symbol
	hasResult    bool

	// maxScannedByte is the exclusive upper bound of bytes consulted
	// since the last resetScanned. It feeds the bytesScanned field of
	// produced tokens.
	maxScannedByte uint32

	logger Logger
}

func newLexer() *Lexer {
	return &Lexer{logger: nopLogger{}}
}

func (l *Lexer) setInput(input Input) {
	l.input = input
	l.chunk = nil
	l.chunkStart = 0
	l.maxScannedByte = 0
	l.moveTo(lengthZero)
}

// moveTo repositions the lexer at an absolute position and refreshes the
// lookahead character. The scanned-byte watermark only grows; resetScanned
// starts a fresh token.
func (l *Lexer) moveTo(position Length) {
	l.currentPosition = position
	if position.Bytes > l.maxScannedByte {
		l.maxScannedByte = position.Bytes
	}
	l.refreshLookahead()
}

func (l *Lexer) resetScanned(position Length) {
	l.maxScannedByte = position.Bytes
}

// start begins recognizing a token at the current position.
func (l *Lexer) start() {
	l.tokenStartPosition = l.currentPosition
	l.tokenEndSet = false
	l.hasResult = false
	l.resultSymbol = 0
}

// finish closes the token span. When MarkEnd was never called the token
// extends to the current position.
func (l *Lexer) finish() {
	if !l.tokenEndSet {
		l.tokenEndPosition = l.currentPosition
		l.tokenEndSet = true
	}
}

func (l *Lexer) refreshLookahead() {
	rel := int64(l.currentPosition.Bytes) - int64(l.chunkStart)
	if l.chunk == nil || rel < 0 || rel >= int64(len(l.chunk)) {
		l.chunk = l.input.Read(l.currentPosition.Bytes)
		l.chunkStart = l.currentPosition.Bytes
		rel = 0
	}
	if len(l.chunk) == 0 || rel >= int64(len(l.chunk)) {
		l.lookahead = 0
		l.lookaheadSize = 0
		l.atEOF = true
		return
	}
	r, size := utf8.DecodeRune(l.chunk[rel:])
	l.lookahead = r
	l.lookaheadSize = uint32(size)
	l.atEOF = false
	if scanned := l.currentPosition.Bytes + uint32(size); scanned > l.maxScannedByte {
		l.maxScannedByte = scanned
	}
}

// remainingLength consumes input from a position to EOF and returns the
// length covered. Used when a parse is halted early.
func (l *Lexer) remainingLength(from Length) Length {
	l.moveTo(from)
	for !l.atEOF {
		l.Advance(false)
	}
	return l.currentPosition.Sub(from)
}

// Lookahead returns the current character, or 0 at end of input.
func (l *Lexer) Lookahead() rune {
	if l.atEOF {
		return 0
	}
	return l.lookahead
}

// AtEOF reports whether the lexer has consumed all input.
func (l *Lexer) AtEOF() bool {
	return l.atEOF
}

// Advance consumes the current character. When skip is true the consumed
// bytes are excluded from the token span (whitespace skipping).
func (l *Lexer) Advance(skip bool) {
	if l.atEOF {
		return
	}
	step := Length{Bytes: l.lookaheadSize}
	if l.lookahead == '\n' {
		step.Extent = Point{Row: 1, Column: 0}
	} else {
		step.Extent = Point{Column: 1}
	}
	l.currentPosition = l.currentPosition.Add(step)
	if skip {
		l.tokenStartPosition = l.currentPosition
	}
	l.refreshLookahead()
}

// MarkEnd marks the current position as the token end. Lex functions use
// this to recognize tokens that require lookahead past their end.
func (l *Lexer) MarkEnd() {
	l.tokenEndPosition = l.currentPosition
	l.tokenEndSet = true
}

// SetResultSymbol records the token symbol to emit. Internal lex
// functions pass a grammar symbol; external scanners pass a raw external
// token id.
func (l *Lexer) SetResultSymbol(sym Symbol) {
	l.resultSymbol = sym
	l.hasResult = true
}

// GetColumn returns the current column, for scanners that are indentation
// sensitive.
func (l *Lexer) GetColumn() uint32 {
	return l.currentPosition.Extent.Column
}

// lex recognizes the next token for a stack version sitting in the given
// parse state. It tries the external scanner first (when the state
// enables external tokens), then the internal lex function, then error
// recovery: switch to the error-state lex mode, and if that also fails,
// skip input one character at a time until some recognizer succeeds or
// the input ends. Skipped spans become ERROR leaves.
func (p *Parser) lex(version int, state StateID) *Subtree {
	startPosition := p.stack.position(version)
	externalToken := p.stack.lastExternalToken(version)
	lexMode := p.language.lexMode(state)
	validExternalTokens := p.language.enabledExternalTokens(lexMode.ExternalLexState)

	errorMode := state == errorState
	skippedError := false
	foundExternalToken := false
	var firstErrorChar rune
	var errorStartPosition, errorEndPosition Length

	p.lexer.resetScanned(startPosition)
	p.lexer.moveTo(startPosition)

	for {
		currentPosition := p.lexer.currentPosition

		if validExternalTokens != nil {
			p.log(LogTypeLex, "lex_external state:%d, row:%d, column:%d",
				lexMode.ExternalLexState, currentPosition.Extent.Row, currentPosition.Extent.Column)
			p.lexer.start()
			p.externalScannerDeserialize(externalToken)
			if p.language.ExternalScanner.Scan(p.externalPayload, p.lexer, validExternalTokens) && p.lexer.hasResult {
				p.lexer.finish()
				// Zero-width external tokens are allowed, except right
				// after a syntax error.
				if p.lexer.tokenEndPosition.Bytes > currentPosition.Bytes || !errorMode {
					foundExternalToken = true
					break
				}
			}
			p.lexer.moveTo(currentPosition)
		}

		p.log(LogTypeLex, "lex_internal state:%d, row:%d, column:%d",
			lexMode.LexState, currentPosition.Extent.Row, currentPosition.Extent.Column)
		p.lexer.start()
		if p.language.LexFn != nil && p.language.LexFn(p.lexer, lexMode.LexState) && p.lexer.hasResult {
			p.lexer.finish()
			break
		}

		if !p.lexer.atEOF && !errorMode {
			errorMode = true
			lexMode = p.language.lexMode(errorState)
			validExternalTokens = p.language.enabledExternalTokens(lexMode.ExternalLexState)
			p.lexer.moveTo(startPosition)
			continue
		}

		if p.lexer.atEOF && !skippedError {
			// Clean end of input: emit the EOF token.
			p.lexer.start()
			p.lexer.finish()
			p.lexer.resultSymbol = symbolEnd
			break
		}

		if !skippedError {
			p.log(LogTypeLex, "skip_unrecognized_character")
			skippedError = true
			errorStartPosition = p.lexer.tokenStartPosition
			errorEndPosition = p.lexer.tokenStartPosition
			p.lexer.moveTo(errorStartPosition)
			firstErrorChar = p.lexer.Lookahead()
		}

		if p.lexer.currentPosition.Bytes == errorEndPosition.Bytes {
			if p.lexer.atEOF {
				break
			}
			p.lexer.Advance(false)
		}
		errorEndPosition = p.lexer.currentPosition
		p.lexer.moveTo(errorEndPosition)
	}

	var result *Subtree
	if skippedError {
		padding := errorStartPosition.Sub(startPosition)
		size := errorEndPosition.Sub(errorStartPosition)
		bytesScanned := p.lexer.maxScannedByte - errorStartPosition.Bytes
		if bytesScanned < size.Bytes {
			bytesScanned = size.Bytes
		}
		result = p.pool.newErrorLeaf(size, padding, bytesScanned, firstErrorChar, p.language)
		p.log(LogTypeLex, "lexed_error_token row:%d, column:%d",
			errorStartPosition.Extent.Row, errorStartPosition.Extent.Column)
	} else {
		symbol := p.lexer.resultSymbol
		isKeyword := false
		if foundExternalToken {
			if int(symbol) < len(p.language.ExternalSymbolMap) {
				symbol = p.language.ExternalSymbolMap[symbol]
			}
		} else if symbol == p.language.KeywordCaptureToken && symbol != 0 {
			symbol, isKeyword = p.captureKeyword(state, symbol)
		}

		padding := p.lexer.tokenStartPosition.Sub(startPosition)
		size := p.lexer.tokenEndPosition.Sub(p.lexer.tokenStartPosition)
		result = p.pool.newLeaf(symbol, padding, size, p.language)
		result.isKeyword = isKeyword
		bytesScanned := p.lexer.maxScannedByte - p.lexer.tokenStartPosition.Bytes
		if bytesScanned < size.Bytes {
			bytesScanned = size.Bytes
		}
		result.bytesScanned = bytesScanned
		if foundExternalToken {
			result.hasExternalTokens = true
			n := p.language.ExternalScanner.Serialize(p.externalPayload, p.serializationBuf[:])
			if n > 0 {
				result.externalTokenState = append([]byte(nil), p.serializationBuf[:n]...)
			}
		}
		p.log(LogTypeLex, "lexed_lookahead sym:%s, size:%d", p.language.SymbolName(symbol), size.Bytes)
	}

	result.parseState = state
	result.firstLeafLexMode = lexMode
	return result
}

// captureKeyword re-lexes the token span with the keyword lex function.
// The keyword symbol is substituted only when it covers exactly the same
// bytes and has some action in the current state.
func (p *Parser) captureKeyword(state StateID, original Symbol) (Symbol, bool) {
	if p.language.KeywordLexFn == nil {
		return original, false
	}
	endByte := p.lexer.tokenEndPosition.Bytes
	tokenStart := p.lexer.tokenStartPosition
	tokenEnd := p.lexer.tokenEndPosition

	p.lexer.moveTo(tokenStart)
	p.lexer.start()
	if p.language.KeywordLexFn(p.lexer, 0) && p.lexer.hasResult {
		p.lexer.finish()
		if p.lexer.tokenEndPosition.Bytes == endByte &&
			p.language.hasActions(state, p.lexer.resultSymbol) {
			return p.lexer.resultSymbol, true
		}
	}
	// Restore the original token span.
	p.lexer.tokenStartPosition = tokenStart
	p.lexer.tokenEndPosition = tokenEnd
	p.lexer.tokenEndSet = true
	return original, false
}

// externalScannerDeserialize restores external scanner state from the
// token that last produced it, or resets the scanner when there is none.
func (p *Parser) externalScannerDeserialize(externalToken *Subtree) {
	var data []byte
	if externalToken != nil {
		data = externalToken.externalTokenState
	}
	p.language.ExternalScanner.Deserialize(p.externalPayload, data)
}

// Token cache: a single-slot memo keyed by byte position and external
// scanner state, so sibling stack versions at one position lex only once.

type tokenCache struct {
	token             *Subtree
	byteIndex         uint32
	lastExternalToken *Subtree
}

func (p *Parser) cachedToken(state StateID, position uint32, lastExternalToken *Subtree, entry *TableEntry) *Subtree {
	c := &p.tokenCache
	if c.token == nil || c.byteIndex != position ||
		!externalScannerStateEq(c.lastExternalToken, lastExternalToken) {
		return nil
	}
	*entry = p.language.tableEntry(state, c.token.symbol)
	if !p.canReuseFirstLeaf(state, c.token, entry) {
		return nil
	}
	return retainSubtree(c.token)
}

func (p *Parser) setCachedToken(position uint32, lastExternalToken, token *Subtree) {
	c := &p.tokenCache
	p.pool.release(c.token)
	p.pool.release(c.lastExternalToken)
	c.token = retainSubtree(token)
	c.lastExternalToken = retainSubtree(lastExternalToken)
	c.byteIndex = position
}

func (p *Parser) clearTokenCache() {
	c := &p.tokenCache
	p.pool.release(c.token)
	p.pool.release(c.lastExternalToken)
	c.token = nil
	c.lastExternalToken = nil
	c.byteIndex = 0
}

// canReuseFirstLeaf decides whether a token produced earlier (by a prior
// parse or by another stack version) is valid as the next lookahead in
// the given state.
func (p *Parser) canReuseFirstLeaf(state StateID, tree *Subtree, entry *TableEntry) bool {
	currentLexMode := p.language.lexMode(state)
	leafSymbol := tree.firstLeafSymbol
	leafLexMode := tree.firstLeafLexMode

	// A token created under the same lex mode saw the same set of valid
	// lookaheads, so it is directly reusable, unless it is a keyword
	// candidate, which may lex differently per state.
	if len(entry.Actions) > 0 && leafLexMode == currentLexMode &&
		(leafSymbol != p.language.KeywordCaptureToken || leafSymbol == 0 ||
			(!tree.isKeyword && tree.parseState == state)) {
		return true
	}

	// Zero-width tokens are not reusable in states with different
	// lookaheads.
	if tree.size.Bytes == 0 && leafSymbol != symbolEnd {
		return false
	}

	// Otherwise rely on the table's reusability flag, and never reuse
	// into a state that enables external tokens.
	return currentLexMode.ExternalLexState == 0 && entry.Reusable
}

func (p *Parser) log(logType LogType, format string, args ...any) {
	if _, ok := p.logger.(nopLogger); ok {
		return
	}
	p.logger.Log(logType, fmt.Sprintf(format, args...))
}
