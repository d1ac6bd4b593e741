package controllers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"crguide/crguide/config"
	"crguide/crguide/services/auth"
	"crguide/crguide/sessions"
	"crguide/crguide/utils/formatter"
	"crguide/crguide/utils/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) AuthCodeURL(state string) string { return "https://idp.example/?state=" + state }
func (stubProvider) Exchange(context.Context, string) (string, error) {
	return "tok", nil
}
func (stubProvider) FetchProfile(context.Context, string) (auth.Profile, error) {
	return auth.Profile{"name": "Grace", "picture": "https://img.example/g.png", "email": "grace@example.com"}, nil
}

type replyAsker struct{ reply string }

func (a replyAsker) Ask(context.Context, []types.Message) (string, error) { return a.reply, nil }

type captureSink struct {
	got []types.FeedbackRecord
	err error
}

func (c *captureSink) UploadFeedback(_ context.Context, records []types.FeedbackRecord) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.got = append(c.got, records...)
	return "feedback_x.csv", nil
}

func signedInSession(t *testing.T, rate int) *sessions.Session {
	t.Helper()
	mgr := sessions.NewManager(sessions.Options{
		Greeting:      "Hi there",
		Asker:         replyAsker{reply: "Try the **food bank**."},
		NewGate:       func() *auth.Gate { return auth.NewGate(stubProvider{}, nil) },
		RatePerMinute: rate,
	})
	sess := mgr.Create()
	u, err := url.Parse(sess.Gate.Begin())
	require.NoError(t, err)
	require.NoError(t, sess.Gate.ReceiveCode(context.Background(), "c", u.Query().Get("state")))
	return sess
}

func settle(t *testing.T, sess *sessions.Session) {
	_, sender, err := sess.Conversation()
	require.NoError(t, err)
	sender.Wait()
}

func newChat(sink FeedbackSink) *ChatController {
	return NewChatController(config.DefaultSite(), formatter.New("markdown"), sink, true)
}

func TestSendGuardsBlankDraft(t *testing.T) {
	sess := signedInSession(t, 0)
	c := newChat(nil)

	_, err := c.Send(context.Background(), sess, " \n\t")
	assert.ErrorIs(t, err, ErrEmptyDraft)

	snap, err := c.Send(context.Background(), sess, "where is the food bank?")
	require.NoError(t, err)
	assert.Len(t, snap.Messages, 2)
	settle(t, sess)

	snap, err = c.Snapshot(sess)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 3)
	assert.False(t, snap.Typing)
}

func TestSendIsRateLimited(t *testing.T) {
	sess := signedInSession(t, 1)
	c := newChat(nil)

	_, err := c.Send(context.Background(), sess, "one")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), sess, "two")
	assert.ErrorIs(t, err, ErrRateLimited)
	settle(t, sess)
}

func TestSendRequiresSignIn(t *testing.T) {
	mgr := sessions.NewManager(sessions.Options{
		NewGate: func() *auth.Gate { return auth.NewGate(stubProvider{}, nil) },
	})
	_, err := newChat(nil).Send(context.Background(), mgr.Create(), "hi")
	assert.ErrorIs(t, err, sessions.ErrNotLoggedIn)
}

func TestChatPageCarriesProfileAndDraft(t *testing.T) {
	sess := signedInSession(t, 0)
	c := newChat(nil)

	_, err := c.SetDraft(sess, "Can you help me find mental health services in Durham?")
	require.NoError(t, err)

	page, err := c.ChatPage(sess)
	require.NoError(t, err)
	assert.Equal(t, "Grace", page.Profile.Name)
	assert.Equal(t, "https://img.example/g.png", page.Profile.Picture)
	assert.True(t, page.CanSend())
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "assistant", page.Messages[0].Role)
	assert.Len(t, page.SuggestedQuestions, 4)
}

func TestFragmentRendersFormattedReply(t *testing.T) {
	sess := signedInSession(t, 0)
	c := newChat(nil)
	_, err := c.Send(context.Background(), sess, "food?")
	require.NoError(t, err)
	settle(t, sess)

	snap, err := c.Snapshot(sess)
	require.NoError(t, err)
	html, err := c.Fragment(snap)
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>food bank</strong>")
	assert.Equal(t, 3, strings.Count(html, `class="message `))
	assert.NotContains(t, html, "typing-indicator")
}

func TestLoginPageShowsGateError(t *testing.T) {
	mgr := sessions.NewManager(sessions.Options{
		NewGate: func() *auth.Gate { return auth.NewGate(stubProvider{}, nil) },
	})
	sess := mgr.Create()
	c := newChat(nil)

	assert.Empty(t, c.LoginPage(sess).Error)
	assert.Empty(t, c.LoginPage(nil).Error)

	sess.Gate.Begin()
	require.Error(t, sess.Gate.ReceiveCode(context.Background(), "c", "wrong"))
	page := c.LoginPage(sess)
	assert.Equal(t, auth.UserMessage(auth.ErrStateMismatch), page.Error)
	assert.True(t, page.Enabled)
}

func TestFeedback(t *testing.T) {
	sess := signedInSession(t, 0)
	_, err := newChat(nil).Feedback(context.Background(), sess, types.FeedbackRequest{})
	assert.ErrorIs(t, err, ErrFeedbackDisabled)

	sink := &captureSink{}
	c := newChat(sink)
	_, err = c.Send(context.Background(), sess, "where can I eat?")
	require.NoError(t, err)
	settle(t, sess)

	for _, idx := range []int{-1, 1, 3} {
		_, err = c.Feedback(context.Background(), sess, types.FeedbackRequest{MessageIndex: idx})
		assert.ErrorIs(t, err, ErrBadFeedback, "index %d", idx)
	}

	key, err := c.Feedback(context.Background(), sess, types.FeedbackRequest{
		MessageIndex: 2, FeedbackType: "positive", AdditionalFeedback: "great",
	})
	require.NoError(t, err)
	assert.Equal(t, "feedback_x.csv", key)
	require.Len(t, sink.got, 1)
	rec := sink.got[0]
	assert.Equal(t, "where can I eat?", rec.UserInput)
	assert.Equal(t, "Try the **food bank**.", rec.BotResponse)
	assert.Equal(t, sess.ID+"-2", rec.ResponseID)

	// the greeting has no question before it
	_, err = c.Feedback(context.Background(), sess, types.FeedbackRequest{MessageIndex: 0, FeedbackType: "negative"})
	require.NoError(t, err)
	assert.Empty(t, sink.got[1].UserInput)

	sink.err = errors.New("bucket gone")
	_, err = c.Feedback(context.Background(), sess, types.FeedbackRequest{MessageIndex: 2})
	assert.EqualError(t, err, "bucket gone")
}
