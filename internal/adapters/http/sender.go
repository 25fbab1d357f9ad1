package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/why-shiro/J4Fluxer/internal/ports"
)

const jsonContentType = "application/json; charset=utf-8"

// Request is one REST call ready to be sent.
type Request struct {
	Method        string
	URL           string
	Authorization string
	UserAgent     string

	// Body is sent as JSON when non-nil.
	Body []byte
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode/100 == 2
}

// Sender performs HTTP exchanges through a ports.HTTPClient.
type Sender struct {
	client ports.HTTPClient
}

// NewSender creates a new HTTP sender.
func NewSender(client ports.HTTPClient) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{client: client}
}

// Send transmits req and reads the whole response body.
// A non-2xx status is not an error at this layer.
func (s *Sender) Send(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	switch {
	case req.Body != nil:
		body = bytes.NewReader(req.Body)
	case req.Method == http.MethodPost || req.Method == http.MethodPut:
		// The API rejects POST and PUT without a body.
		body = http.NoBody
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Authorization", req.Authorization)
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", jsonContentType)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
