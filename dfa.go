package gotreesitter

// LexState is one state in a table-driven lexer DFA. Hand-built grammars
// describe their tokens with these tables and turn them into a LexFunc
// with CompileLexFn; generated grammars provide a LexFunc directly.
type LexState struct {
	AcceptToken Symbol // 0 if this state doesn't accept
	Skip        bool   // true if accepted chars are whitespace
	Transitions []LexTransition
	Default     int // default next state (-1 if none)
	EOF         int // state on EOF (-1 if none)
}

// LexTransition maps a character range to a next state.
type LexTransition struct {
	Lo, Hi    rune // inclusive character range
	NextState int
}

// CompileLexFn turns a DFA state table into a LexFunc. The function
// performs maximal munch: it records an accept with MarkEnd each time an
// accepting state is reached and keeps walking, so the token ends at the
// last accept even when the walk continues past it. Whitespace runs
// (states with Skip set) are consumed with skip-advances and the walk
// restarts after them.
func CompileLexFn(states []LexState) LexFunc {
	return func(l *Lexer, startState uint16) bool {
		for {
			cur := int(startState)
			haveResult := false
			skipping := false

			for {
				if cur < 0 || cur >= len(states) {
					return haveResult
				}
				st := &states[cur]
				if st.Skip {
					skipping = true
				} else if st.AcceptToken > 0 {
					l.MarkEnd()
					l.SetResultSymbol(st.AcceptToken)
					haveResult = true
				}

				next := -1
				if l.AtEOF() {
					next = st.EOF
				} else {
					r := l.Lookahead()
					for i := range st.Transitions {
						tr := &st.Transitions[i]
						if r >= tr.Lo && r <= tr.Hi {
							next = tr.NextState
							break
						}
					}
					if next < 0 {
						next = st.Default
					}
				}

				if next < 0 {
					if skipping && !haveResult {
						// A whitespace run ended; restart on the
						// following character.
						break
					}
					return haveResult
				}

				nextIsSkip := next >= 0 && next < len(states) && states[next].Skip
				l.Advance(nextIsSkip && !haveResult)
				cur = next
			}
		}
	}
}
