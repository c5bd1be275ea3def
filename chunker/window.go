package chunker

import "github.com/tkoide/corpora/core"

// SplitWindows splits text into fixed-size sliding windows. Window i covers
// [i*stride, min(i*stride+size, n)) in runes; the window whose end reaches
// the text length is the last one, even when it is shorter than size.
// Offsets are rune offsets, so multi-byte text windows line up with what a
// reader counts, not with byte positions.
func SplitWindows(text string, size, stride int) []*core.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []*core.Chunk
	idx := 0
	start := 0
	for start < n {
		end := min(start+size, n)
		chunks = append(chunks, &core.Chunk{
			ChunkIndex: idx,
			StartChar:  start,
			EndChar:    end,
			Text:       string(runes[start:end]),
		})
		idx++
		if end == n {
			break
		}
		start += stride
	}
	return chunks
}
