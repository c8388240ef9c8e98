package transcript

import "strings"

// Buffer holds the cumulative transcript text reported by the recorder
// together with a cursor marking how much of it has already been handed
// to the chunk scheduler. The recorder reports the full text on every
// partial update rather than deltas, so updates replace the buffer
// wholesale; the cursor is what prevents re-summarizing text that a
// chunk already consumed.
type Buffer struct {
	text   string
	cursor int
}

// SetCumulative replaces the buffer with the newly reported full text
// and returns the unconsumed tail.
func (b *Buffer) SetCumulative(full string) string {
	b.text = full
	return b.Unconsumed()
}

// Unconsumed returns the text after the cursor. Empty when a revision
// shrank the text past the cursor.
func (b *Buffer) Unconsumed() string {
	if b.cursor >= len(b.text) {
		return ""
	}
	return b.text[b.cursor:]
}

// ConsumeTo advances the cursor to the given offset. The cursor never
// moves backwards and never passes the end of the buffer.
func (b *Buffer) ConsumeTo(offset int) {
	if offset > len(b.text) {
		offset = len(b.text)
	}
	if offset > b.cursor {
		b.cursor = offset
	}
}

// LeftoverFrom returns the text after the given cursor position,
// clamped to the buffer length. Used by the final-summary merge, where
// the cursor was captured at the moment chunking was disabled and a
// racing partial update may have shifted the text underneath it.
func (b *Buffer) LeftoverFrom(cursor int) string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(b.text) {
		return ""
	}
	return b.text[cursor:]
}

func (b *Buffer) Text() string { return b.text }

func (b *Buffer) Cursor() int { return b.cursor }

func (b *Buffer) Len() int { return len(b.text) }

// Reset clears all state for a new session.
func (b *Buffer) Reset() {
	b.text = ""
	b.cursor = 0
}

// WordCount counts whitespace-separated words, matching how the
// summarizer worker measures transcript length.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
