package gotreesitter

import (
	"bytes"
	"testing"
)

func makeWordBenchmarkSource(words int) []byte {
	var buf bytes.Buffer
	for i := 0; i < words; i++ {
		if i > 0 {
			if i%10 == 0 {
				buf.WriteByte('\n')
			} else {
				buf.WriteByte(' ')
			}
		}
		buf.WriteString("word")
	}
	return buf.Bytes()
}

func BenchmarkParseFull(b *testing.B) {
	parser := NewParser()
	if err := parser.SetLanguage(buildWordLanguage()); err != nil {
		b.Fatal(err)
	}
	defer parser.Close()

	src := makeWordBenchmarkSource(2000)

	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		tree := parser.ParseBytes(src, nil)
		if tree == nil || tree.RootNode().IsNil() {
			b.Fatal("parse returned nil root")
		}
		tree.Close()
	}
}

func BenchmarkParseIncrementalSingleEdit(b *testing.B) {
	parser := NewParser()
	if err := parser.SetLanguage(buildWordLanguage()); err != nil {
		b.Fatal(err)
	}
	defer parser.Close()

	src := makeWordBenchmarkSource(2000)
	editAt := len(src) / 2

	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		tree := parser.ParseBytes(src, nil)
		b.StartTimer()

		tree.Edit(InputEdit{
			StartByte:   uint32(editAt),
			OldEndByte:  uint32(editAt + 1),
			NewEndByte:  uint32(editAt + 1),
			StartPoint:  pointAtOffset(src, editAt),
			OldEndPoint: pointAtOffset(src, editAt+1),
			NewEndPoint: pointAtOffset(src, editAt+1),
		})
		reparsed := parser.ParseBytes(src, tree)

		b.StopTimer()
		reparsed.Close()
		tree.Close()
		b.StartTimer()
	}
}
