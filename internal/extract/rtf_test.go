package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsort/internal/common"
)

func TestResolveRTFEscapes(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"codepage_byte", `{\rtf1\ansi\ansicpg1252 f\'fcr 100 \u8364?}`, `{\rtf1\ansi\ansicpg1252 für 100 €}`},
		{"central_european", `{\rtf1\ansi\ansicpg1250 \'9akoda}`, `{\rtf1\ansi\ansicpg1250 škoda}`},
		{"surrogate_pair", `{\rtf1 smile \u-10179?\u-8704?!}`, `{\rtf1 smile 😀!}`},
		{"lone_high_surrogate", `{\rtf1 x\u-10179?y}`, "{\\rtf1 x\uFFFDy}"},
		{"wide_fallback", `{\rtf1\uc2 Wide\u8212XXend}`, `{\rtf1\uc2 Wide—end}`},
		{"fallback_is_escaped_byte", `{\rtf1 a\u8364\'80b}`, `{\rtf1 a€b}`},
		{"uc_restored_after_group", `{\rtf1{\uc2 a}\u8364?b}`, `{\rtf1{\uc2 a}€b}`},
		{"structural_chars_stay_escaped", `{\rtf1 \u123?x\u125?\u92?}`, `{\rtf1 \{x\}\\}`},
		{"control_words_untouched", `{\rtf1\pard\b bold\b0\par \{ \}}`, `{\rtf1\pard\b bold\b0\par \{ \}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(resolveRTFEscapes([]byte(tc.in))))
		})
	}
}

func TestRTFText(t *testing.T) {
	doc := `{\rtf1\ansi\ansicpg1252\deff0{\fonttbl{\f0\fswiss Helvetica;}}{\colortbl;\red255\green0\blue0;}
{\*\generator Riched20 10.0;}{\info{\title Secret}}
\pard\f0\fs24 Lizenzvertrag f\'fcr \b Acme\b0\par
Betrag:\tab 100 \u8364?\par
Emoji \u-10179?\u-8704?\par
\uc2 Wide\u8212XXend}`

	raw, err := rtfText([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "rtftxt", raw.method)
	for _, want := range []string{"Lizenzvertrag für", "Acme", "100 €", "Emoji 😀", "Wide—end"} {
		assert.Contains(t, raw.text, want)
	}
	for _, hidden := range []string{"Helvetica", "Riched20", "Secret", "\uFFFD"} {
		assert.NotContains(t, raw.text, hidden)
	}
}

func TestRTFTextRejectsNonRTF(t *testing.T) {
	_, err := rtfText([]byte("plain text"))
	assert.ErrorIs(t, err, common.ErrUnsupported)

	_, err = NewExtractor(Config{}, nil).Extract(context.Background(), writeFile(t, "fake.rtf", []byte("plain text pretending")))
	assert.ErrorIs(t, err, common.ErrUnreadable)
	assert.ErrorIs(t, err, common.ErrUnsupported)
}
