package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"crguide/crguide/conversation"
	"crguide/crguide/services/assistant"
	"crguide/crguide/utils/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAsker records each history it is given and answers from a per-call channel.
type fakeAsker struct {
	mu      sync.Mutex
	calls   [][]types.Message
	replies chan reply
}

type reply struct {
	text string
	err  error
}

func newFakeAsker() *fakeAsker {
	return &fakeAsker{replies: make(chan reply, 16)}
}

func (f *fakeAsker) Ask(ctx context.Context, history []types.Message) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, history)
	f.mu.Unlock()
	r := <-f.replies
	return r.text, r.err
}

func (f *fakeAsker) Calls() [][]types.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]types.Message(nil), f.calls...)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("round trip did not settle")
	}
}

func TestSendAppendsUserAndAssistant(t *testing.T) {
	store := conversation.New("greeting", nil)
	asker := newFakeAsker()
	ctrl := NewSendController(store, asker)

	for i := 0; i < 3; i++ {
		asker.replies <- reply{text: "ok"}
		gen := ctrl.Send(context.Background(), "question")
		waitFor(t, ctrl.Settled(gen))
	}

	msgs := store.Messages()
	require.Len(t, msgs, 1+2*3)
	for i := 1; i < len(msgs); i += 2 {
		assert.Equal(t, types.RoleUser, msgs[i].Role)
		assert.Equal(t, types.RoleAssistant, msgs[i+1].Role)
	}
	assert.False(t, store.Typing())
}

func TestSendClearsDraftBeforeReply(t *testing.T) {
	store := conversation.New("greeting", nil)
	store.SetDraft("hello")
	asker := newFakeAsker()
	ctrl := NewSendController(store, asker)

	gen := ctrl.Send(context.Background(), store.Draft())

	assert.Equal(t, "", store.Draft())
	assert.True(t, store.Typing())
	assert.Equal(t, 2, store.Len())

	asker.replies <- reply{text: "hi"}
	waitFor(t, ctrl.Settled(gen))
	assert.False(t, store.Typing())
}

func TestSendPayloadShape(t *testing.T) {
	store := conversation.New("hi", nil)
	asker := newFakeAsker()
	ctrl := NewSendController(store, asker)

	asker.replies <- reply{text: "done"}
	waitFor(t, ctrl.Settled(ctrl.Send(context.Background(), "world")))

	calls := asker.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 2)
	assert.Equal(t, types.RoleAssistant, calls[0][0].Role)
	assert.Equal(t, "hi", calls[0][0].Content)
	assert.Equal(t, types.RoleUser, calls[0][1].Role)
	assert.Equal(t, "world", calls[0][1].Content)
	assert.NotEmpty(t, calls[0][1].Timestamp)
}

func TestSendFallbackOnFailure(t *testing.T) {
	store := conversation.New("hi", nil)
	asker := newFakeAsker()
	ctrl := NewSendController(store, asker)

	asker.replies <- reply{err: errors.New("connection refused")}
	waitFor(t, ctrl.Settled(ctrl.Send(context.Background(), "world")))

	last, ok := store.Last()
	require.True(t, ok)
	assert.Equal(t, types.RoleAssistant, last.Role)
	assert.Equal(t, FallbackReply, last.Content)
	assert.False(t, store.Typing())
}

func TestSendDoesNotValidateDraft(t *testing.T) {
	store := conversation.New("hi", nil)
	asker := newFakeAsker()
	ctrl := NewSendController(store, asker)

	asker.replies <- reply{text: "?"}
	waitFor(t, ctrl.Settled(ctrl.Send(context.Background(), "   ")))

	assert.Equal(t, "   ", store.Messages()[1].Content)
}

func TestStaleReplyIsDropped(t *testing.T) {
	store := conversation.New("hi", nil)
	asker := newFakeAsker()
	ctrl := NewSendController(store, asker)

	first := ctrl.Send(context.Background(), "first")
	second := ctrl.Send(context.Background(), "second")
	assert.Greater(t, second, first)

	// both round trips get an answer; only the latest one is applied
	asker.replies <- reply{text: "reply"}
	asker.replies <- reply{text: "reply"}
	waitFor(t, ctrl.Settled(first))
	waitFor(t, ctrl.Settled(second))

	msgs := store.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, "second", msgs[2].Content)
	assert.Equal(t, types.RoleAssistant, msgs[3].Role)
	assert.False(t, store.Typing())
}

func TestOlderReplyDoesNotClearTyping(t *testing.T) {
	store := conversation.New("hi", nil)
	gate := make(chan struct{})
	asker := &orderedAsker{release: map[string]chan struct{}{"first": make(chan struct{}), "second": gate}}
	ctrl := NewSendController(store, asker)

	first := ctrl.Send(context.Background(), "first")
	second := ctrl.Send(context.Background(), "second")

	close(asker.release["first"])
	waitFor(t, ctrl.Settled(first))
	assert.True(t, store.Typing(), "typing must stay on while the latest send is in flight")
	assert.Equal(t, 3, store.Len())

	close(gate)
	waitFor(t, ctrl.Settled(second))
	assert.False(t, store.Typing())
	last, _ := store.Last()
	assert.Equal(t, "re: second", last.Content)
}

// orderedAsker blocks each call until the channel keyed by the last user message closes.
type orderedAsker struct {
	release map[string]chan struct{}
}

func (o *orderedAsker) Ask(ctx context.Context, history []types.Message) (string, error) {
	last := history[len(history)-1].Content
	<-o.release[last]
	return "re: " + last, nil
}

func TestSendSync(t *testing.T) {
	store := conversation.New("hi", nil)
	asker := newFakeAsker()
	ctrl := NewSendController(store, asker)

	asker.replies <- reply{text: "answer"}
	last, err := ctrl.SendSync(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "answer", last.Content)
	ctrl.Wait()
}

func TestSendSyncReportsFallback(t *testing.T) {
	store := conversation.New("hi", nil)
	asker := newFakeAsker()
	ctrl := NewSendController(store, asker)

	asker.replies <- reply{err: errors.New("connection refused")}
	last, err := ctrl.SendSync(context.Background(), "q")
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, FallbackReply, last.Content)

	// a genuine reply that happens to match the fallback text is not a failure
	asker.replies <- reply{text: FallbackReply}
	last, err = ctrl.SendSync(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, last.Content)
	ctrl.Wait()
}

func TestSettledUnknownGenerationIsClosed(t *testing.T) {
	ctrl := NewSendController(conversation.New("hi", nil), newFakeAsker())
	waitFor(t, ctrl.Settled(42))
}

func TestEndToEndAgainstHTTPEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"Sure, here are three options..."}`))
	}))
	defer srv.Close()

	store := conversation.New("greeting", nil)
	ctrl := NewSendController(store, assistant.NewClient(srv.URL, time.Second))
	waitFor(t, ctrl.Settled(ctrl.Send(context.Background(), "Can you help me find mental health services in Durham?")))

	msgs := store.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "greeting", msgs[0].Content)
	assert.Equal(t, types.RoleUser, msgs[1].Role)
	assert.Equal(t, "Can you help me find mental health services in Durham?", msgs[1].Content)
	assert.Equal(t, types.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "Sure, here are three options...", msgs[2].Content)
}

func TestEndpointRejectsFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := conversation.New("greeting", nil)
	ctrl := NewSendController(store, assistant.NewClient(srv.URL, time.Second))
	waitFor(t, ctrl.Settled(ctrl.Send(context.Background(), "q")))

	last, _ := store.Last()
	assert.Equal(t, FallbackReply, last.Content)
	assert.False(t, store.Typing())
}
