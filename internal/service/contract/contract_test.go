package contract

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest(t Type) Request {
	return Request{
		Type:     t,
		Investor: "X",
		Holder:   "Y",
		Project:  "Z",
		Amount:   "100",
		Date:     "2024-01-01",
	}
}

func TestRenderFinancingContainsAllFields(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	text, err := g.Render(sampleRequest(TypeFinancing))
	require.NoError(t, err)
	for _, want := range []string{"X", "Y", "Z", "100", "2024-01-01"} {
		assert.Contains(t, text, want)
	}
	assert.Contains(t, text, "FINANCEMENT")
}

func TestRenderEveryKnownType(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	for _, typ := range Types {
		req := Request{Type: typ, Investor: "Mamadou Diallo", Holder: "Aïssatou Barry", Project: "Ferme avicole", Amount: "5 000 000", Date: "2025-03-15"}
		text, err := g.Render(req)
		require.NoError(t, err, typ)
		for _, want := range []string{req.Investor, req.Holder, req.Project, req.Amount, req.Date} {
			assert.Contains(t, text, want, typ)
		}
	}
}

func TestRenderTypeIsCaseInsensitive(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	text, err := g.Render(sampleRequest(" Vente "))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "CONTRAT DE VENTE"))
}

func TestRenderUnknownTypeReturnsPlaceholder(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	for _, typ := range []Type{"location", ""} {
		text, err := g.Render(sampleRequest(typ))
		require.NoError(t, err)
		assert.Equal(t, Placeholder, text)
	}
}

func TestValidateReportsFields(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	require.NoError(t, g.Validate(sampleRequest(TypeSale)))

	req := sampleRequest(TypeSale)
	req.Investor = ""
	req.Date = "01/01/2024"
	err = g.Validate(req)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.ElementsMatch(t, []string{"investor", "date"}, verr.Fields)
}

func TestDocumentText(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	doc, err := g.Document(sampleRequest(TypePartnership), FormatText)
	require.NoError(t, err)
	assert.Equal(t, "contrat_partenariat.txt", doc.FileName)
	assert.Equal(t, "text/plain; charset=utf-8", doc.ContentType)
	assert.Contains(t, string(doc.Body), "Z")

	doc, err = g.Document(sampleRequest("inconnu"), FormatText)
	require.NoError(t, err)
	assert.Equal(t, "contrat.txt", doc.FileName)
	assert.Equal(t, Placeholder, string(doc.Body))
}

func TestDocumentPDF(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	doc, err := g.Document(sampleRequest(TypeFinancing), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "contrat_financement.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF-")))
}

func TestDocumentRejectsInvalidRequest(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	_, err = g.Document(Request{Type: TypeFinancing}, FormatPDF)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 5)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("TXT")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("docx")
	require.Error(t, err)
}
