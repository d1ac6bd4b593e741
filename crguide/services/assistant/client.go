// crguide/services/assistant/client.go
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httputils "crguide/crguide/utils/http"
	"crguide/crguide/utils/logging"
	"crguide/crguide/utils/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer         = otel.Tracer("crguide/assistant")
	askDuration, _ = otel.Meter("crguide/assistant").Float64Histogram("assistant.ask.duration",
		metric.WithUnit("ms"), metric.WithDescription("round trip time of /ask calls"))
)

var ErrMissingResponse = errors.New("assistant reply has no response field")

// Asker performs one round trip with the remote assistant.
type Asker interface {
	Ask(ctx context.Context, history []types.Message) (string, error)
}

// Client posts the full history to the /ask endpoint. No auth header, no retries.
type Client struct {
	url    string
	client *http.Client
}

// NewClient builds a client; a zero timeout means the request may wait forever.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, client: &http.Client{Timeout: timeout}}
}

func (c *Client) Ask(ctx context.Context, history []types.Message) (string, error) {
	defer logging.LogDuration(ctx, "assistant_ask")()
	ctx, span := tracer.Start(ctx, "assistant_ask", trace.WithAttributes(attribute.Int("history.length", len(history))))
	defer span.End()
	start := time.Now()

	reply, err := c.ask(ctx, history)
	askDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return reply, err
}

func (c *Client) ask(ctx context.Context, history []types.Message) (string, error) {
	var resp types.AskResponse
	if err := httputils.PostJSON(ctx, c.client, c.url, types.AskRequest{Messages: history}, &resp); err != nil {
		return "", fmt.Errorf("ask %s: %w", c.url, err)
	}
	if resp.Response == nil {
		return "", ErrMissingResponse
	}
	return *resp.Response, nil
}
