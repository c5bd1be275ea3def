package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "no markup here", "no markup here"},
		{"simple tags", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"line breaks", "one<br>two<br/>three", "one\ntwo\nthree"},
		{"paragraphs", "<p>first</p><p>second</p>", "first\nsecond\n"},
		{"entities", "a &amp; b &lt; c", "a & b < c"},
		{"script dropped", "before<script>alert(1)</script>after", "beforeafter"},
		{"style dropped", "<style>p { color: red }</style>text", "text"},
		{"multiline tag", "a<a\nhref=\"x\">link</a>b", "alinkb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.in))
		})
	}
}
