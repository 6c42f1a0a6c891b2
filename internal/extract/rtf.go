package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/lu4p/cat/rtftxt"
	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/docsort/internal/common"
)

var rtfCodepages = map[int]*charmap.Charmap{
	437:  charmap.CodePage437,
	850:  charmap.CodePage850,
	1250: charmap.Windows1250,
	1251: charmap.Windows1251,
	1252: charmap.Windows1252,
	1253: charmap.Windows1253,
	1254: charmap.Windows1254,
	1255: charmap.Windows1255,
	1256: charmap.Windows1256,
	1257: charmap.Windows1257,
	1258: charmap.Windows1258,
}

func rtfText(data []byte) (rawText, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(`{\rtf`)) {
		return rawText{}, fmt.Errorf("%w: not an RTF document", common.ErrUnsupported)
	}
	buf, err := rtftxt.Text(bytes.NewReader(resolveRTFEscapes(data)))
	if err != nil {
		return rawText{}, fmt.Errorf("parse rtf: %w", err)
	}
	return rawText{text: buf.String(), method: "rtftxt"}, nil
}

// resolveRTFEscapes rewrites \uN and \'hh escapes as literal UTF-8 so the
// text converter only sees structure. \uN pairs that form a UTF-16
// surrogate pair become one rune, the \ucN fallback characters that follow
// each \uN are dropped, and \'hh bytes are decoded with the \ansicpgN
// codepage (Windows-1252 when absent or unknown).
func resolveRTFEscapes(data []byte) []byte {
	var (
		out     bytes.Buffer
		cp      = charmap.Windows1252
		uc      = 1
		ucStack []int
		skip    int
		high    rune
	)
	out.Grow(len(data))

	writeRune := func(r rune) {
		if high != 0 {
			out.WriteRune(utf8.RuneError)
			high = 0
		}
		switch r {
		case '\\', '{', '}':
			out.WriteByte('\\')
			out.WriteByte(byte(r))
		default:
			out.WriteRune(r)
		}
	}
	flush := func() {
		if high != 0 {
			out.WriteRune(utf8.RuneError)
			high = 0
		}
	}

	n := len(data)
	for i := 0; i < n; {
		c := data[i]
		switch {
		case c == '{':
			flush()
			ucStack = append(ucStack, uc)
			skip = 0
			out.WriteByte(c)
			i++
		case c == '}':
			flush()
			if len(ucStack) > 0 {
				uc = ucStack[len(ucStack)-1]
				ucStack = ucStack[:len(ucStack)-1]
			}
			skip = 0
			out.WriteByte(c)
			i++
		case c == '\\' && i+1 < n && data[i+1] == '\'':
			end := min(i+4, n)
			v, err := strconv.ParseUint(string(data[min(i+2, end):end]), 16, 8)
			i = end
			switch {
			case skip > 0:
				skip--
			case err == nil:
				writeRune(cp.DecodeByte(byte(v)))
			}
		case c == '\\' && i+1 < n && isASCIILetter(data[i+1]):
			start := i
			i++
			for i < n && isASCIILetter(data[i]) {
				i++
			}
			word := string(data[start+1 : i])
			pstart := i
			if i < n && (data[i] == '-' || isASCIIDigit(data[i])) {
				i++
				for i < n && isASCIIDigit(data[i]) {
					i++
				}
			}
			param, perr := strconv.Atoi(string(data[pstart:i]))
			if i < n && data[i] == ' ' {
				i++
			}

			switch {
			case word == "u" && perr == nil:
				r := rune(param)
				if r < 0 {
					r += 65536
				}
				switch {
				case utf16.IsSurrogate(r) && r < 0xDC00:
					flush()
					high = r
				case utf16.IsSurrogate(r) && high != 0:
					out.WriteRune(utf16.DecodeRune(high, r))
					high = 0
				default:
					writeRune(r)
				}
				skip = uc
				continue
			case word == "uc" && perr == nil:
				uc = max(param, 0)
			case word == "ansicpg" && perr == nil:
				if m, ok := rtfCodepages[param]; ok {
					cp = m
				}
			}
			flush()
			skip = 0
			out.Write(data[start:i])
		case c == '\\':
			end := min(i+2, n)
			if skip > 0 {
				skip--
			} else {
				flush()
				out.Write(data[i:end])
			}
			i = end
		case c == '\r' || c == '\n':
			out.WriteByte(c)
			i++
		default:
			if skip > 0 {
				skip--
			} else {
				flush()
				out.WriteByte(c)
			}
			i++
		}
	}
	flush()
	return out.Bytes()
}

func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isASCIIDigit(c byte) bool { return c >= '0' && c <= '9' }
