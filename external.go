package gotreesitter

// TreeSitterSerializationBufferSize is the fixed size of the scratch
// buffer shared between the lexer and external scanner serialization.
// Scanners must not serialize more state than fits in it, and callers
// must not retain slices of it across calls.
const TreeSitterSerializationBufferSize = 1024

// ExternalScanner is the interface for language-specific external
// scanners. Languages need these for context-sensitive tokens: indent
// tracking, string interpolation, regex vs division, heredocs.
//
// The payload is an opaque per-parser object created on SetLanguage and
// destroyed with the parser. Scanner state that must survive between
// tokens is persisted through Serialize/Deserialize; the serialized
// bytes are embedded in the token subtrees the scanner produces.
type ExternalScanner interface {
	Create() any
	Destroy(payload any)

	// Scan attempts to recognize one of the valid external tokens at the
	// lexer's current position. On success it sets the lexer's result
	// symbol (a raw external token id, mapped through the language's
	// ExternalSymbolMap) and returns true.
	Scan(payload any, lexer *Lexer, validTokens []bool) bool

	// Serialize writes the scanner's current state into buffer and
	// returns the number of bytes written. buffer has
	// TreeSitterSerializationBufferSize bytes.
	Serialize(payload any, buffer []byte) int

	// Deserialize restores scanner state from data. An empty slice must
	// reset the scanner to its initial state.
	Deserialize(payload any, data []byte)
}
