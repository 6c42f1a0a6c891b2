package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// docxText walks word/document.xml in document order. Paragraphs become lines;
// table cells of a row are joined with " | ".
func docxText(data []byte) (rawText, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return rawText{}, fmt.Errorf("open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return rawText{}, fmt.Errorf("%s not found", docxBody)
	}

	rc, err := docFile.Open()
	if err != nil {
		return rawText{}, fmt.Errorf("open %s: %w", docxBody, err)
	}
	defer rc.Close()

	text, err := walkDocumentXML(rc)
	if err != nil {
		return rawText{}, err
	}
	return rawText{text: text, method: "docx-xml"}, nil
}

func walkDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		lines    []string
		para     strings.Builder
		cells    []string
		cellText []string
		inText   bool
		tblDepth int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBody, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			case "tbl":
				tblDepth++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tblDepth > 0 {
					if para.Len() > 0 {
						cellText = append(cellText, para.String())
					}
				} else {
					lines = append(lines, para.String())
				}
				para.Reset()
			case "tc":
				cells = append(cells, strings.Join(cellText, " "))
				cellText = cellText[:0]
			case "tr":
				if strings.TrimSpace(strings.Join(cells, "")) != "" {
					lines = append(lines, strings.Join(cells, " | "))
				}
				cells = cells[:0]
			case "tbl":
				tblDepth--
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
