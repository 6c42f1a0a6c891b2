package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// MAPI property streams in an Outlook .msg container. The 001F suffix marks
// UTF-16LE content and 001E marks 8-bit content.
const (
	msgSubjectProp = "__substg1.0_0037"
	msgBodyProp    = "__substg1.0_1000"
	msgUnicode     = "001F"
	msgString8     = "001E"
)

// msgText reads subject and plain-text body from the top-level property streams,
// ignoring attachments and recipient storages.
func msgText(data []byte) (rawText, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return rawText{}, fmt.Errorf("open msg: %w", err)
	}

	props := make(map[string][]byte)
	for entry, err := doc.Next(); ; entry, err = doc.Next() {
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rawText{}, fmt.Errorf("read msg: %w", err)
		}
		if inSubStorage(entry.Path) || len(entry.Name) != len(msgSubjectProp)+len(msgUnicode) {
			continue
		}
		if prop := entry.Name[:len(msgSubjectProp)]; prop != msgSubjectProp && prop != msgBodyProp {
			continue
		}
		buf, err := io.ReadAll(entry)
		if err != nil {
			return rawText{}, fmt.Errorf("read %s: %w", entry.Name, err)
		}
		props[entry.Name] = buf
	}

	if len(props) == 0 {
		return rawText{}, fmt.Errorf("msg has no subject or body stream")
	}
	subject := msgProperty(props, msgSubjectProp)
	body := msgProperty(props, msgBodyProp)

	var chunks []string
	if s := strings.TrimSpace(subject); s != "" {
		chunks = append(chunks, "Subject: "+s)
	}
	if b := strings.TrimSpace(body); b != "" {
		chunks = append(chunks, b)
	}
	return rawText{text: strings.Join(chunks, "\n"), method: "ole2-msg"}, nil
}

func inSubStorage(path []string) bool {
	for _, p := range path {
		if strings.HasPrefix(p, "__attach_") || strings.HasPrefix(p, "__recip_") || strings.HasPrefix(p, "__nameid_") {
			return true
		}
	}
	return false
}

func msgProperty(props map[string][]byte, prop string) string {
	if b, ok := props[prop+msgUnicode]; ok {
		s := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), b)
		return strings.TrimRight(s, "\x00")
	}
	if b, ok := props[prop+msgString8]; ok {
		b = bytes.TrimRight(b, "\x00")
		if utf8.Valid(b) {
			return string(b)
		}
		return decodeWith(charmap.Windows1252, b)
	}
	return ""
}
