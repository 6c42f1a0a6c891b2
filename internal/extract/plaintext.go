package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// minCharsetConfidence is the chardet score (0-100) below which a guess is
// ignored in favour of Windows-1252.
const minCharsetConfidence = 50

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText guesses the encoding of data and decodes it to UTF-8, replacing
// anything undecodable. It returns the text and the encoding name it picked.
func decodeText(data []byte) (string, string) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return toValidUTF8(data[len(bomUTF8):]), "UTF-8"
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data), "UTF-16LE"
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data), "UTF-16BE"
	case utf8.Valid(data):
		return string(data), "UTF-8"
	}
	if enc, name, ok := detectCharset(data); ok {
		return decodeWith(enc, data), name
	}
	return decodeWith(charmap.Windows1252, data), "Windows-1252"
}

// detectCharset asks chardet for a legacy 8-bit or multi-byte charset.
// Unicode guesses are refused since a missing BOM was already ruled out.
func detectCharset(data []byte) (encoding.Encoding, string, bool) {
	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || best == nil || best.Confidence < minCharsetConfidence {
		return nil, "", false
	}
	if strings.HasPrefix(strings.ToUpper(best.Charset), "UTF-") {
		return nil, "", false
	}
	enc, err := htmlindex.Get(best.Charset)
	if err != nil {
		return nil, "", false
	}
	// The WHATWG index folds ISO-8859-1 into Windows-1252.
	if enc == charmap.Windows1252 {
		return enc, "Windows-1252", true
	}
	return enc, best.Charset, true
}

func decodeWith(enc encoding.Encoding, data []byte) string {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return toValidUTF8(data)
	}
	return toValidUTF8(out)
}

func toValidUTF8(b []byte) string {
	return string(bytes.ToValidUTF8(b, []byte("\uFFFD")))
}
