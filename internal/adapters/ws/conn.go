// Package ws implements the gateway transport on gorilla/websocket.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/why-shiro/J4Fluxer/internal/gateway"
	"github.com/why-shiro/J4Fluxer/internal/ports"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 15 * time.Second
)

// Dialer opens websocket connections to the gateway.
type Dialer struct {
	dialer *websocket.Dialer
	header http.Header
}

// NewDialer creates a dialer. userAgent is sent with the upgrade request
// when not empty.
func NewDialer(userAgent string) *Dialer {
	h := http.Header{}
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	return &Dialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header: h,
	}
}

// Dial implements ports.Dialer.
func (d *Dialer) Dial(ctx context.Context, url string) (ports.Conn, error) {
	c, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return NewConn(c), nil
}

// Conn adapts a *websocket.Conn to ports.Conn.
type Conn struct {
	c         *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps c.
func NewConn(c *websocket.Conn) *Conn {
	return &Conn{c: c}
}

// ReadMessage returns the next data message. A close frame from the peer
// is returned as *gateway.CloseError.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.c.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return nil, &gateway.CloseError{Code: ce.Code, Reason: ce.Text}
		}
		return nil, err
	}
	return data, nil
}

// WriteMessage sends data as one text message.
func (c *Conn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.c.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and closes the connection. Only the first
// call has an effect.
func (c *Conn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		c.closeErr = c.c.Close()
	})
	return c.closeErr
}
