// Package chat runs the send/reply round trip for one conversation.
package chat

import (
	"context"
	"sync"

	"crguide/crguide/conversation"
	"crguide/crguide/services/assistant"
	"crguide/crguide/utils/logging"
	"crguide/crguide/utils/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var (
	meter              = otel.Meter("crguide/chat")
	sendsCounter, _    = meter.Int64Counter("chat.sends", metric.WithDescription("messages sent to the assistant"))
	fallbackCounter, _ = meter.Int64Counter("chat.fallback_replies", metric.WithDescription("round trips answered with the fallback reply"))
	staleCounter, _    = meter.Int64Counter("chat.stale_replies", metric.WithDescription("replies dropped because a newer send superseded them"))
)

// FallbackReply replaces the assistant reply whenever a round trip fails.
const FallbackReply = "Sorry, something went wrong. Please try again later."

// SendController appends the user message, asks the assistant and appends the reply.
//
// Every send bumps a generation counter. Only the reply to the latest send is
// appended and clears the typing flag; replies to older sends are dropped.
type SendController struct {
	store *conversation.Store
	asker assistant.Asker
	log   *zap.Logger

	mu      sync.Mutex
	gen     uint64
	pending map[uint64]*trip
	wg      sync.WaitGroup
}

func NewSendController(store *conversation.Store, asker assistant.Asker) *SendController {
	return &SendController{
		store:   store,
		asker:   asker,
		log:     logging.AppLogger,
		pending: make(map[uint64]*trip),
	}
}

// WithLogger tags log lines, e.g. with the session id.
func (c *SendController) WithLogger(l *zap.Logger) *SendController {
	c.log = l
	return c
}

// trip is one in-flight round trip; err is set before done is closed.
type trip struct {
	done chan struct{}
	err  error
}

// Send starts a round trip for draft and returns its generation without waiting.
// The draft is used as given; callers decide whether blank drafts are allowed.
func (c *SendController) Send(ctx context.Context, draft string) uint64 {
	gen, _ := c.send(ctx, draft)
	return gen
}

func (c *SendController) send(ctx context.Context, draft string) (uint64, *trip) {
	msg := types.NewMessage(types.RoleUser, draft, c.store.Now())

	c.mu.Lock()
	c.store.Append(msg)
	c.store.SetDraft("")
	c.store.SetTyping(true)
	c.gen++
	gen := c.gen
	history := c.store.Messages()
	t := &trip{done: make(chan struct{})}
	c.pending[gen] = t
	c.wg.Add(1)
	c.mu.Unlock()
	sendsCounter.Add(ctx, 1)

	// the round trip outlives the request that started it
	go c.roundTrip(context.WithoutCancel(ctx), gen, history, t)
	return gen, t
}

// SendSync sends and blocks until that round trip settles, returning the last message.
// When the assistant could not be reached the message is the fallback reply and err says why.
func (c *SendController) SendSync(ctx context.Context, draft string) (types.Message, error) {
	_, t := c.send(ctx, draft)
	select {
	case <-t.done:
	case <-ctx.Done():
		return types.Message{}, ctx.Err()
	}
	last, _ := c.store.Last()
	return last, t.err
}

// Settled is closed once the round trip of gen has finished, applied or not.
func (c *SendController) Settled(gen uint64) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.pending[gen]; ok {
		return t.done
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Wait blocks until no round trip is in flight.
func (c *SendController) Wait() {
	c.wg.Wait()
}

func (c *SendController) roundTrip(ctx context.Context, gen uint64, history []types.Message, t *trip) {
	defer c.wg.Done()

	content, err := c.asker.Ask(ctx, history)
	if err != nil {
		logging.ErrorLogger.Error("assistant round trip failed", zap.Uint64("generation", gen), zap.Error(err))
		fallbackCounter.Add(ctx, 1)
		content = FallbackReply
		t.err = err
	}

	c.mu.Lock()
	defer func() {
		delete(c.pending, gen)
		close(t.done)
		c.mu.Unlock()
	}()
	if gen != c.gen {
		staleCounter.Add(ctx, 1)
		c.log.Info("dropping stale assistant reply",
			zap.Uint64("generation", gen), zap.Uint64("latest", c.gen))
		return
	}
	c.store.Append(types.NewMessage(types.RoleAssistant, content, c.store.Now()))
	c.store.SetTyping(false)
}
