package gotreesitter

// Point is a row/column position in source text.
type Point struct {
	Row    uint32
	Column uint32
}

// Length is a byte count together with its row/column extent. Subtree
// paddings and sizes are Lengths, and stack positions are computed by
// summing them.
type Length struct {
	Bytes  uint32
	Extent Point
}

var lengthZero = Length{}

func pointAdd(a, b Point) Point {
	if b.Row > 0 {
		return Point{Row: a.Row + b.Row, Column: b.Column}
	}
	return Point{Row: a.Row, Column: a.Column + b.Column}
}

func pointSub(a, b Point) Point {
	if a.Row > b.Row {
		return Point{Row: a.Row - b.Row, Column: a.Column}
	}
	if a.Row < b.Row || b.Column > a.Column {
		return Point{}
	}
	return Point{Row: 0, Column: a.Column - b.Column}
}

func pointLTE(a, b Point) bool {
	return a.Row < b.Row || (a.Row == b.Row && a.Column <= b.Column)
}

// Add combines two lengths. The column of the result depends on whether
// the second length spans a newline.
func (a Length) Add(b Length) Length {
	return Length{
		Bytes:  a.Bytes + b.Bytes,
		Extent: pointAdd(a.Extent, b.Extent),
	}
}

// Sub computes the length between two absolute positions, saturating at
// zero when b exceeds a.
func (a Length) Sub(b Length) Length {
	if b.Bytes >= a.Bytes {
		return lengthZero
	}
	return Length{
		Bytes:  a.Bytes - b.Bytes,
		Extent: pointSub(a.Extent, b.Extent),
	}
}
