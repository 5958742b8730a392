package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// documentXML represents the parts of word/document.xml that carry text.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []table     `xml:"tbl"`
	} `xml:"body"`
}

type table struct {
	Rows []tableRow `xml:"tr"`
}

type tableRow struct {
	Cells []tableCell `xml:"tc"`
}

type tableCell struct {
	Paragraphs []paragraph `xml:"p"`
}

// text joins the cell's paragraphs with newlines.
func (c tableCell) text() string {
	lines := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		lines = append(lines, p.text)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// paragraph is a w:p element reduced to its style and visible text.
type paragraph struct {
	style    string
	numbered bool
	text     string
}

// UnmarshalXML walks the paragraph's runs in document order, collecting
// w:t text, tabs and breaks.
func (p *paragraph) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var b strings.Builder
	inText := false
	depth := 1

	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "pStyle":
				p.style = attr(t, "val")
			case "numPr":
				p.numbered = true
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	p.text = b.String()
	return nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// styleNames maps style ids (as referenced by w:pStyle) to display names.
type styleNames map[string]string

// name returns the display name for a style id, or the id itself.
func (s styleNames) name(id string) string {
	if n, ok := s[id]; ok && n != "" {
		return n
	}
	return id
}

type stylesXML struct {
	Styles []struct {
		ID   string `xml:"styleId,attr"`
		Name struct {
			Val string `xml:"val,attr"`
		} `xml:"name"`
	} `xml:"style"`
}

// readStyles loads word/styles.xml. A document without a styles part has
// no named styles, which is not an error.
func readStyles(reader *zip.Reader) (styleNames, error) {
	content, err := readPart(reader, "word/styles.xml")
	if errors.Is(err, domain.ErrNotFound) {
		return styleNames{}, nil
	}
	if err != nil {
		return styleNames{}, err
	}

	var parsed stylesXML
	if err := xml.Unmarshal(content, &parsed); err != nil {
		return styleNames{}, err
	}

	names := make(styleNames, len(parsed.Styles))
	for _, s := range parsed.Styles {
		names[s.ID] = s.Name.Val
	}
	return names, nil
}
