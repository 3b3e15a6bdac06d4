package telnet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, "\033[31mhp 3\033[0m", Colorize(Red, "hp 3"))
	assert.Equal(t, "\033[1mturn 4\033[0m", Colorf(Bold, "turn %d", 4))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "Thor hits Loki", StripANSI(Colorize(Bold, "Thor")+" hits "+Colorize(Red, "Loki")))
	assert.Equal(t, "plain", StripANSI("plain"))
	assert.Equal(t, "\033[unterminated", StripANSI("\033[unterminated"))
}

func TestPropertyStripANSI_RemovesWhatColorizeAdds(t *testing.T) {
	codes := []string{Reset, Bold, Dim, Red, Green, Yellow, Blue, Cyan, BrightRed, BrightGreen}
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 :>-]{0,40}`).Draw(t, "text")
		code := rapid.SampledFrom(codes).Draw(t, "code")
		got := StripANSI(Colorize(code, text))
		assert.Equal(t, text, got)
		assert.False(t, strings.Contains(got, "\033"))
	})
}
