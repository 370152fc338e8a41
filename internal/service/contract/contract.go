// Package contract fills contract templates and renders them for download.
package contract

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
)

// Placeholder is the body rendered for an unknown contract type.
const Placeholder = "Type de contrat non reconnu."

// Type names a contract template.
type Type string

const (
	TypeFinancing   Type = "financement"
	TypePartnership Type = "partenariat"
	TypeSale        Type = "vente"
)

// Types lists the supported contract types in display order.
var Types = []Type{TypeFinancing, TypePartnership, TypeSale}

var titles = map[Type]string{
	TypeFinancing:   "Contrat de financement",
	TypePartnership: "Contrat de partenariat",
	TypeSale:        "Contrat de vente",
}

// Title returns a human readable label.
func (t Type) Title() string {
	if title, ok := titles[t]; ok {
		return title
	}
	return "Contrat"
}

// Known reports whether a template exists for t.
func (t Type) Known() bool {
	_, ok := titles[t]
	return ok
}

// Request carries the contract form fields.
type Request struct {
	Type     Type   `json:"type" form:"type"`
	Investor string `json:"investor" form:"investor" validate:"required,max=200"`
	Holder   string `json:"holder" form:"holder" validate:"required,max=200"`
	Project  string `json:"project" form:"project" validate:"required,max=200"`
	Amount   string `json:"amount" form:"amount" validate:"required,max=50"`
	Date     string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
}

// ValidationError lists the offending form fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid contract fields: " + strings.Join(e.Fields, ", ")
}

//go:embed templates/*.tmpl
var templateFS embed.FS

// Generator renders contract documents.
type Generator struct {
	templates *template.Template
	validate  *validator.Validate
}

// NewGenerator parses the embedded templates.
func NewGenerator() (*Generator, error) {
	tmpl, err := template.New("contracts").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse contract templates: %w", err)
	}
	for _, t := range Types {
		if tmpl.Lookup(string(t)+".tmpl") == nil {
			return nil, fmt.Errorf("missing template for %s", t)
		}
	}
	return &Generator{templates: tmpl, validate: validator.New()}, nil
}

// Validate checks the free-text and date fields. The type is not checked:
// an unknown type renders the placeholder.
func (g *Generator) Validate(req Request) error {
	err := g.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return &ValidationError{Fields: fields}
	}
	return err
}

// Render returns the filled contract text, or Placeholder for an unknown type.
func (g *Generator) Render(req Request) (string, error) {
	t := normalizeType(req.Type)
	if !t.Known() {
		return Placeholder, nil
	}
	var buf bytes.Buffer
	if err := g.templates.ExecuteTemplate(&buf, string(t)+".tmpl", req); err != nil {
		return "", fmt.Errorf("render %s contract: %w", t, err)
	}
	return buf.String(), nil
}

func normalizeType(t Type) Type {
	return Type(strings.ToLower(strings.TrimSpace(string(t))))
}
