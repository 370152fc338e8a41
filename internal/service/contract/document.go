package contract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Format selects the downloadable representation.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a request value to a Format, defaulting to PDF.
func ParseFormat(v string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "pdf":
		return FormatPDF, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", v)
	}
}

// Document is a rendered contract ready to be served as an attachment.
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}

// Document validates req, renders it and encodes it in format.
func (g *Generator) Document(req Request, format Format) (*Document, error) {
	if err := g.Validate(req); err != nil {
		return nil, err
	}
	text, err := g.Render(req)
	if err != nil {
		return nil, err
	}
	t := normalizeType(req.Type)
	base := "contrat"
	if t.Known() {
		base = "contrat_" + string(t)
	}

	switch format {
	case FormatText:
		return &Document{
			FileName:    base + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(text),
		}, nil
	case FormatPDF:
		body, err := renderPDF(t.Title(), text)
		if err != nil {
			return nil, err
		}
		return &Document{
			FileName:    base + ".pdf",
			ContentType: "application/pdf",
			Body:        body,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func renderPDF(title, text string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("Invest Together", true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	// core fonts are cp1252; translate accented characters
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(5)
			continue
		}
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
