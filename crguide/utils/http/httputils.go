// crguide/utils/http/httputils.go
package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrBadStatus = errors.New("bad status")

// StatusError carries the status code of a non-2xx reply.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("bad status: %d", e.Code) }

func (e *StatusError) Unwrap() error { return ErrBadStatus }

func PostJSON(ctx context.Context, client *http.Client, url string, body interface{}, resp interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(client, req, resp)
}

func GetJSONWithBearer(ctx context.Context, client *http.Client, url, token string, resp interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return do(client, req, resp)
}

func do(client *http.Client, req *http.Request, resp interface{}) error {
	if client == nil {
		client = http.DefaultClient
	}
	r, err := client.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode < 200 || r.StatusCode > 299 {
		io.Copy(io.Discard, r.Body)
		return &StatusError{Code: r.StatusCode}
	}
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}
