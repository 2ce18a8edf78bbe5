package llm

import "strings"

const (
	thinkOpenTag  = "<think>"
	thinkCloseTag = "</think>"
)

// thinkDemux splits a content stream into visible text and reasoning
// wrapped in think tags. Tags match case-insensitively and may arrive
// split across chunk boundaries, so any trailing partial match is held
// back until the next write settles what it was.
type thinkDemux struct {
	inside bool
	buf    string
	emit   func(thought bool, text string)
}

func newThinkDemux(emit func(thought bool, text string)) *thinkDemux {
	return &thinkDemux{emit: emit}
}

// Write feeds the demux one chunk. Outside a think block only the opening
// tag is significant, inside only the closing one.
func (d *thinkDemux) Write(chunk string) {
	d.buf += chunk
	for {
		tag := thinkOpenTag
		if d.inside {
			tag = thinkCloseTag
		}

		lower := lowerASCII(d.buf)
		if idx := strings.Index(lower, tag); idx >= 0 {
			d.send(d.buf[:idx])
			d.buf = d.buf[idx+len(tag):]
			d.inside = !d.inside
			continue
		}

		hold := trailingTagPrefix(lower, tag)
		d.send(d.buf[:len(d.buf)-hold])
		d.buf = d.buf[len(d.buf)-hold:]
		return
	}
}

// Flush releases a held-back partial tag under the current classification.
// Called once the stream ends; an unterminated think block stays thinking.
func (d *thinkDemux) Flush() {
	d.send(d.buf)
	d.buf = ""
}

func (d *thinkDemux) send(text string) {
	if text != "" {
		d.emit(d.inside, text)
	}
}

// trailingTagPrefix returns the length of the longest suffix of s that is
// a strict prefix of tag.
func trailingTagPrefix(s, tag string) int {
	n := len(tag) - 1
	if n > len(s) {
		n = len(s)
	}
	for ; n > 0; n-- {
		if strings.HasPrefix(tag, s[len(s)-n:]) {
			return n
		}
	}
	return 0
}

// lowerASCII lowercases A-Z only, keeping byte offsets aligned with the
// original string.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
