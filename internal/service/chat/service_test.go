package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"investchat/internal/faq"
	"investchat/internal/models"
)

const systemPrompt = "Tu es un assistant pour Invest Together."

type staticFAQ struct {
	matcher *faq.Matcher
}

func (s *staticFAQ) Current() *faq.Matcher { return s.matcher }

type fakeCompleter struct {
	calls   int
	last    []models.Message
	err     error
	replyFn func(history []models.Message) string
}

func (f *fakeCompleter) Complete(_ context.Context, history []models.Message) (string, error) {
	f.calls++
	f.last = history
	if f.err != nil {
		return "", f.err
	}
	if f.replyFn != nil {
		return f.replyFn(history), nil
	}
	return "réponse du modèle", nil
}

type record struct {
	sessionID string
	role      models.Role
	content   string
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []record
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, sessionID string, role models.Role, content string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record{sessionID, role, content})
	return nil
}

func (m *memoryRecorder) Messages(_ context.Context, sessionID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, r := range m.records {
		if r.sessionID == sessionID {
			out = append(out, models.Message{SessionID: r.sessionID, Role: r.role, Content: r.content})
		}
	}
	return out, nil
}

func newTestService(t *testing.T, entries []faq.Entry, completer Completer, recorder *memoryRecorder) *Service {
	t.Helper()
	opts := Options{
		SystemPrompt:     systemPrompt,
		ContractTriggers: []string{" Contrat ", ""},
		ContractPrompt:   "Remplissez le formulaire.",
	}
	return NewService(opts, &staticFAQ{matcher: faq.NewMatcher(entries)}, completer, recorder, zaptest.NewLogger(t))
}

func TestNewSessionSeedsSystemMessage(t *testing.T) {
	svc := newTestService(t, nil, &fakeCompleter{}, &memoryRecorder{})
	sess := svc.NewSession()

	require.NotEmpty(t, sess.ID)
	msgs := sess.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	assert.Equal(t, systemPrompt, msgs[0].Content)
	assert.Empty(t, sess.Snapshot().Messages)

	other := svc.NewSession()
	assert.NotEqual(t, sess.ID, other.ID)
}

func TestRespondFAQHitSkipsCompleter(t *testing.T) {
	completer := &fakeCompleter{}
	rec := &memoryRecorder{}
	svc := newTestService(t, []faq.Entry{{Patterns: []string{"comment investir"}, Answer: "A"}}, completer, rec)
	sess := svc.NewSession()

	reply, err := svc.Respond(context.Background(), sess, "Comment investir dans un projet ?")
	require.NoError(t, err)
	assert.Equal(t, SourceFAQ, reply.Source)
	assert.Equal(t, "A", reply.Assistant.Content)
	assert.Equal(t, 0, completer.calls)

	require.Len(t, rec.records, 2)
	assert.Equal(t, record{sess.ID, models.RoleUser, "Comment investir dans un projet ?"}, rec.records[0])
	assert.Equal(t, record{sess.ID, models.RoleAssistant, "A"}, rec.records[1])
}

func TestRespondMissDelegatesWithFullTranscript(t *testing.T) {
	completer := &fakeCompleter{}
	svc := newTestService(t, []faq.Entry{{Patterns: []string{"documents"}, Answer: "liste"}}, completer, &memoryRecorder{})
	sess := svc.NewSession()

	_, err := svc.Respond(context.Background(), sess, "Quels documents ?")
	require.NoError(t, err)
	reply, err := svc.Respond(context.Background(), sess, "Et ensuite ?")
	require.NoError(t, err)

	assert.Equal(t, SourceModel, reply.Source)
	assert.Equal(t, "réponse du modèle", reply.Assistant.Content)
	require.Equal(t, 1, completer.calls)
	require.Len(t, completer.last, 4)
	assert.Equal(t, models.RoleSystem, completer.last[0].Role)
	assert.Equal(t, "Quels documents ?", completer.last[1].Content)
	assert.Equal(t, "liste", completer.last[2].Content)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "Et ensuite ?"}, completer.last[3])
}

func TestTranscriptShapeAfterTurns(t *testing.T) {
	completer := &fakeCompleter{replyFn: func(h []models.Message) string {
		return fmt.Sprintf("tour %d", len(h))
	}}
	svc := newTestService(t, []faq.Entry{{Patterns: []string{"sécurité"}, Answer: "sûr"}}, completer, &memoryRecorder{})
	sess := svc.NewSession()

	inputs := []string{"bonjour", "la sécurité ?", "je veux un contrat", "merci"}
	for _, in := range inputs {
		_, err := svc.Respond(context.Background(), sess, in)
		require.NoError(t, err)
	}

	msgs := sess.Transcript()
	require.Len(t, msgs, 1+2*len(inputs))
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	for i := 1; i < len(msgs); i++ {
		want := models.RoleUser
		if i%2 == 0 {
			want = models.RoleAssistant
		}
		assert.Equal(t, want, msgs[i].Role, "index %d", i)
	}
	for i, in := range inputs {
		assert.Equal(t, in, msgs[1+2*i].Content)
	}
}

func TestRespondContractTriggerSetsFormPending(t *testing.T) {
	completer := &fakeCompleter{}
	svc := newTestService(t, []faq.Entry{{Patterns: []string{"contrat"}, Answer: "faq"}}, completer, &memoryRecorder{})
	sess := svc.NewSession()

	reply, err := svc.Respond(context.Background(), sess, "Je voudrais générer un CONTRAT")
	require.NoError(t, err)
	assert.Equal(t, SourceForm, reply.Source)
	assert.Equal(t, "Remplissez le formulaire.", reply.Assistant.Content)
	assert.True(t, reply.FormPending)
	assert.True(t, sess.FormPending())
	assert.Equal(t, 0, completer.calls)

	sess.CompleteForm()
	assert.False(t, sess.FormPending())
}

func TestRespondPersistenceFailureIsIgnored(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("database is locked")}
	svc := newTestService(t, nil, &fakeCompleter{}, rec)
	sess := svc.NewSession()

	reply, err := svc.Respond(context.Background(), sess, "bonjour")
	require.NoError(t, err)
	assert.Equal(t, "réponse du modèle", reply.Assistant.Content)
	assert.Len(t, sess.Transcript(), 3)
}

func TestRespondCompletionFailureLeavesTranscript(t *testing.T) {
	boom := errors.New("provider unavailable")
	rec := &memoryRecorder{}
	svc := newTestService(t, nil, &fakeCompleter{err: boom}, rec)
	sess := svc.NewSession()

	_, err := svc.Respond(context.Background(), sess, "bonjour")
	require.ErrorIs(t, err, boom)
	assert.Len(t, sess.Transcript(), 1)
	assert.Empty(t, rec.records)
}

func TestRespondRejectsBlankInput(t *testing.T) {
	svc := newTestService(t, nil, &fakeCompleter{}, &memoryRecorder{})
	sess := svc.NewSession()

	_, err := svc.Respond(context.Background(), sess, "   ")
	require.ErrorIs(t, err, ErrEmptyInput)
	assert.Len(t, sess.Transcript(), 1)
}

func TestSessionKeepsFAQSnapshot(t *testing.T) {
	source := &staticFAQ{matcher: faq.NewMatcher([]faq.Entry{{Patterns: []string{"étapes"}, Answer: "v1"}})}
	svc := NewService(Options{SystemPrompt: systemPrompt}, source, &fakeCompleter{}, nil, zaptest.NewLogger(t))
	sess := svc.NewSession()

	source.matcher = faq.NewMatcher([]faq.Entry{{Patterns: []string{"étapes"}, Answer: "v2"}})
	reply, err := svc.Respond(context.Background(), sess, "Les étapes ?")
	require.NoError(t, err)
	assert.Equal(t, "v1", reply.Assistant.Content)

	reply, err = svc.Respond(context.Background(), svc.NewSession(), "Les étapes ?")
	require.NoError(t, err)
	assert.Equal(t, "v2", reply.Assistant.Content)
}

func TestHistoryReadsRecorder(t *testing.T) {
	rec := &memoryRecorder{}
	svc := newTestService(t, nil, &fakeCompleter{}, rec)
	sess := svc.NewSession()
	_, err := svc.Respond(context.Background(), sess, "bonjour")
	require.NoError(t, err)

	msgs, err := svc.History(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
}
