package extract

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestIsReadable(t *testing.T) {
	assert.False(t, IsReadable("", 0.5))
	assert.False(t, IsReadable("abcd", 0.5), "fewer than five runes")
	assert.True(t, IsReadable("abcde", 0.5))
	assert.True(t, IsReadable("Vertrag über Lizenzen", 0.5))
	assert.False(t, IsReadable("ÄÖÜäöüß€", 0.5))
	assert.False(t, IsReadable("\x00\x01\x02\x03\x04ab", 0.5))
	assert.True(t, IsReadable("ab\t\n\v\f\r", 1.0))
	// exactly half printable passes the >= comparison
	assert.True(t, IsReadable("abcdeäöüßé", 0.5))
}

func TestPDFDensity(t *testing.T) {
	assert.InDelta(t, 0.5, PDFDensity(1000, 2), 1e-9)
	assert.Zero(t, PDFDensity(100, 0))
	assert.True(t, IsDensePDF(11, 1, 0.01))
	assert.False(t, IsDensePDF(10, 1, 0.01), "the density gate is strict")
	assert.False(t, IsDensePDF(0, 3, 0.01))
}

func TestReadabilityProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 300
	properties := gopter.NewProperties(params)

	properties.Property("ascii text of five or more runes is readable", prop.ForAll(
		func(s string) bool {
			return IsReadable(s, 1.0) == (len(s) >= MinReadableRunes)
		},
		gen.AlphaString(),
	))

	properties.Property("short text is never readable", prop.ForAll(
		func(s string) bool {
			if len([]rune(s)) >= MinReadableRunes {
				return true
			}
			return !IsReadable(s, 0)
		},
		gen.AnyString(),
	))

	properties.Property("padding with printable text never hurts", prop.ForAll(
		func(s string, pad int) bool {
			if !IsReadable(s, 0.5) {
				return true
			}
			return IsReadable(s+strings.Repeat("x", pad), 0.5)
		},
		gen.AnyString(), gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
