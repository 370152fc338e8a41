package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"investchat/internal/config"
	"investchat/internal/models"
)

type fakeGenerator struct {
	got   []*schema.Message
	reply string
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func TestCompleteSendsFullHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "Bonjour !"}
	c := NewCompleterWithModel("openai", "gpt-3.5-turbo", gen)

	history := []models.Message{
		{Role: models.RoleSystem, Content: "Tu es un assistant."},
		{Role: models.RoleUser, Content: "Salut"},
		{Role: models.RoleAssistant, Content: "Bonjour"},
		{Role: models.RoleUser, Content: "Comment ça marche ?"},
	}
	out, err := c.Complete(context.Background(), history)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Bonjour !" {
		t.Fatalf("unexpected completion %q", out)
	}
	if len(gen.got) != len(history) {
		t.Fatalf("expected %d messages sent, got %d", len(history), len(gen.got))
	}
	wantRoles := []schema.RoleType{schema.System, schema.User, schema.Assistant, schema.User}
	for i, msg := range gen.got {
		if msg.Role != wantRoles[i] || msg.Content != history[i].Content {
			t.Fatalf("message %d mismatch: %+v", i, msg)
		}
	}
}

func TestCompletePropagatesErrors(t *testing.T) {
	boom := errors.New("rate limited")
	c := NewCompleterWithModel("openai", "m", &fakeGenerator{err: boom})
	_, err := c.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "x"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}

	c = NewCompleterWithModel("openai", "m", &fakeGenerator{})
	_, err = c.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "x"}})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}

	if _, err := c.Complete(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty history")
	}
}

func TestNewCompleterRejectsUnknownProvider(t *testing.T) {
	if _, err := NewCompleter(context.Background(), "mistral", config.ProviderConfig{APIKey: "k"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewCompleterOpenAI(t *testing.T) {
	c, err := NewCompleter(context.Background(), "openai", config.ProviderConfig{Model: "gpt-3.5-turbo", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("new completer: %v", err)
	}
	provider, name := c.Provider()
	if provider != "openai" || name != "gpt-3.5-turbo" {
		t.Fatalf("unexpected provider info %s/%s", provider, name)
	}
}
