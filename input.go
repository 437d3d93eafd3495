package gotreesitter

// Input is the pull-based byte source the lexer reads from. Read returns
// a contiguous chunk starting at the given byte offset; an empty chunk
// signals end of input. Implementations may return any chunk size they
// like; the lexer re-reads as it advances.
type Input interface {
	Read(byteOffset uint32) []byte
}

type byteSliceInput struct {
	data []byte
}

// NewByteSliceInput wraps a byte slice as an Input.
func NewByteSliceInput(data []byte) Input {
	return &byteSliceInput{data: data}
}

// NewStringInput wraps a string as an Input.
func NewStringInput(s string) Input {
	return &byteSliceInput{data: []byte(s)}
}

func (i *byteSliceInput) Read(byteOffset uint32) []byte {
	if int(byteOffset) >= len(i.data) {
		return nil
	}
	return i.data[byteOffset:]
}
