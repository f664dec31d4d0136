package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// fromDOCX walks word/document.xml directly. Body paragraphs come
// first, then each table with its cells joined by " | ".
func fromDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("docx archive has no word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	return walkDocumentXML(rc)
}

func walkDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		tables     [][]string

		para strings.Builder
		cell strings.Builder
		row  []string
		tbl  []string

		tableDepth int
		inText     bool
	)

	appendText := func(s string) {
		if tableDepth > 0 {
			cell.WriteString(s)
		} else {
			para.WriteString(s)
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					tbl = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					para.Reset()
				}
			case "t":
				inText = true
			case "br", "cr":
				appendText("\n")
			case "tab":
				appendText("\t")
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
				if tableDepth == 0 {
					tables = append(tables, tbl)
				}
			case "tr":
				if tableDepth == 1 {
					cells := make([]string, 0, len(row))
					for _, c := range row {
						if c != "" {
							cells = append(cells, c)
						}
					}
					if len(cells) > 0 {
						tbl = append(tbl, strings.Join(cells, " | "))
					}
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "p":
				if tableDepth == 0 {
					if text := para.String(); strings.TrimSpace(text) != "" {
						paragraphs = append(paragraphs, text)
					}
				} else {
					// Paragraph breaks inside a cell.
					cell.WriteString("\n")
				}
			case "t":
				inText = false
			}

		case xml.CharData:
			if inText {
				appendText(string(t))
			}
		}
	}

	var sb strings.Builder
	for _, p := range paragraphs {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	for _, rows := range tables {
		for _, line := range rows {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}
