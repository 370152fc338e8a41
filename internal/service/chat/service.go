// Package chat resolves user turns and keeps the session transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"investchat/internal/faq"
	"investchat/internal/models"
	"investchat/internal/service/history"
)

// ErrEmptyInput is returned for blank user messages.
var ErrEmptyInput = errors.New("message cannot be empty")

// Completer produces the next assistant message from a transcript.
type Completer interface {
	Complete(ctx context.Context, history []models.Message) (string, error)
}

// FAQSource provides the FAQ snapshot given to new sessions.
type FAQSource interface {
	Current() *faq.Matcher
}

// Source tells where an assistant reply came from.
type Source string

const (
	SourceFAQ   Source = "faq"
	SourceModel Source = "model"
	SourceForm  Source = "form"
)

// Reply is the outcome of one user turn.
type Reply struct {
	User        models.Message `json:"user_message"`
	Assistant   models.Message `json:"assistant_message"`
	Source      Source         `json:"source"`
	FormPending bool           `json:"form_pending"`
}

// Options configures the service.
type Options struct {
	SystemPrompt     string
	ContractTriggers []string
	ContractPrompt   string
}

// Service wires the FAQ, the completion collaborator and the recorder.
type Service struct {
	opts      Options
	faq       FAQSource
	completer Completer
	recorder  history.Recorder
	log       *zap.Logger
}

// NewService builds a chat service. Trigger keywords are matched lowercase.
func NewService(opts Options, faqSource FAQSource, completer Completer, recorder history.Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	triggers := make([]string, 0, len(opts.ContractTriggers))
	for _, kw := range opts.ContractTriggers {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			triggers = append(triggers, kw)
		}
	}
	opts.ContractTriggers = triggers
	return &Service{
		opts:      opts,
		faq:       faqSource,
		completer: completer,
		recorder:  recorder,
		log:       log.Named("chat"),
	}
}

// NewSession starts a session with the current FAQ snapshot.
func (s *Service) NewSession() *Session {
	var matcher *faq.Matcher
	if s.faq != nil {
		matcher = s.faq.Current()
	}
	sess := newSession(uuid.NewString(), s.opts.SystemPrompt, matcher)
	s.log.Info("session started", zap.String("session_id", sess.ID), zap.Int("faq_entries", matcher.Len()))
	return sess
}

// Respond runs one turn: contract trigger, then FAQ, then the completion
// collaborator. On success the user and assistant messages are appended in
// that order. A completion failure leaves the transcript untouched.
func (s *Service) Respond(ctx context.Context, sess *Session, input string) (*Reply, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	answer, source, err := s.resolve(ctx, sess, input)
	if err != nil {
		s.log.Error("turn failed", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, err
	}
	if source == SourceForm {
		sess.formPending = true
	}

	s.appendTurn(ctx, sess, models.RoleUser, input)
	s.appendTurn(ctx, sess, models.RoleAssistant, answer)
	s.log.Debug("turn resolved",
		zap.String("session_id", sess.ID),
		zap.String("source", string(source)),
		zap.Int("transcript_len", sess.transcript.Len()))

	return &Reply{
		User:        models.Message{SessionID: sess.ID, Role: models.RoleUser, Content: input},
		Assistant:   models.Message{SessionID: sess.ID, Role: models.RoleAssistant, Content: answer},
		Source:      source,
		FormPending: sess.formPending,
	}, nil
}

func (s *Service) resolve(ctx context.Context, sess *Session, input string) (string, Source, error) {
	if s.isContractTrigger(input) {
		return s.opts.ContractPrompt, SourceForm, nil
	}
	if answer, ok := sess.faq.Match(input); ok {
		return answer, SourceFAQ, nil
	}
	if s.completer == nil {
		return "", "", errors.New("completion collaborator not configured")
	}
	ctxMessages := append(sess.transcript.Messages(), models.Message{Role: models.RoleUser, Content: input})
	answer, err := s.completer.Complete(ctx, ctxMessages)
	if err != nil {
		return "", "", fmt.Errorf("complete turn: %w", err)
	}
	return answer, SourceModel, nil
}

func (s *Service) isContractTrigger(input string) bool {
	normalized := strings.ToLower(input)
	for _, kw := range s.opts.ContractTriggers {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// appendTurn advances the transcript and then records the message. A
// recording failure is logged and otherwise ignored.
func (s *Service) appendTurn(ctx context.Context, sess *Session, role models.Role, content string) {
	sess.transcript.Append(role, content)
	if s.recorder == nil {
		return
	}
	// a client hanging up must not drop the record of a completed turn
	if err := s.recorder.Record(context.WithoutCancel(ctx), sess.ID, role, content); err != nil {
		s.log.Warn("message not persisted",
			zap.String("session_id", sess.ID),
			zap.String("role", string(role)),
			zap.Error(err))
	}
}

// History returns the durable records of a session.
func (s *Service) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	if s.recorder == nil {
		return nil, nil
	}
	return s.recorder.Messages(ctx, sessionID)
}
