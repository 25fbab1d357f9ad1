package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/why-shiro/J4Fluxer/internal/domain"
	"github.com/why-shiro/J4Fluxer/pkg/entity"
	"github.com/why-shiro/J4Fluxer/pkg/events"
)

const (
	identifyFrame  = `{"op":2,"d":{"token":"Bot abc","intents":0,"properties":{"os":"linux","browser":"J4Fluxer","device":"J4Fluxer"},"presence":{"status":"online","afk":false}}}`
	heartbeatFrame = `{"op":1,"d":null}`
	helloFrame     = `{"op":10,"d":{"heartbeat_interval":41250}}`
	readyFrame     = `{"op":0,"t":"READY","s":1,"d":{"session_id":"s1","user":{"id":"1","username":"bot"}}}`
)

func messageFrame(id, guildID string) string {
	guild := ""
	if guildID != "" {
		guild = `,"guild_id":"` + guildID + `"`
	}
	return `{"op":0,"t":"MESSAGE_CREATE","d":{"id":"` + id + `","channel_id":"5"` + guild +
		`,"content":"hi","author":{"id":"2","username":"a"}}}`
}

func TestSession_IdentifiesOnOpen(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)

	if got := conn.nextWrite(t); got != identifyFrame {
		t.Errorf("identify = %s\nwant       %s", got, identifyFrame)
	}
	waitState(t, h.session, StateIdentifying)
}

func TestSession_IdentifyKeepsBotPrefix(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{Token: "Bot abc"}, conn)
	h.run(t)

	if got := conn.nextWrite(t); got != identifyFrame {
		t.Errorf("identify = %s, want %s", got, identifyFrame)
	}
}

func TestSession_HelloAndReady(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	conn.send(helloFrame)
	ft := h.ticker(t)
	if ft.interval != 41250*time.Millisecond {
		t.Errorf("heartbeat interval = %v, want 41.25s", ft.interval)
	}
	waitState(t, h.session, StateActive)

	conn.send(readyFrame)
	ready, ok := h.events.next(t).(*events.Ready)
	if !ok {
		t.Fatal("first event is not Ready")
	}
	if ready.UserID != "1" || ready.Username != "bot" {
		t.Errorf("Ready = %+v", ready)
	}
	if h.session.SessionID() != "s1" {
		t.Errorf("SessionID() = %q, want s1", h.session.SessionID())
	}

	// No heartbeat before the first interval elapses.
	conn.noWrite(t)
	if !ft.tick() {
		t.Fatal("heartbeat loop did not take the tick")
	}
	if got := conn.nextWrite(t); got != heartbeatFrame {
		t.Errorf("heartbeat = %s, want %s", got, heartbeatFrame)
	}
}

func TestSession_HeartbeatStopsOnClose(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	conn.send(helloFrame)
	ft := h.ticker(t)

	for i := 0; i < 3; i++ {
		if !ft.tick() {
			t.Fatalf("tick %d not taken", i)
		}
		if got := conn.nextWrite(t); got != heartbeatFrame {
			t.Fatalf("tick %d wrote %s", i, got)
		}
	}

	conn.peerClose(1000)
	err := h.wait(t)
	var ce *CloseError
	if !errors.As(err, &ce) || ce.Code != 1000 {
		t.Errorf("Run() = %v, want CloseError 1000", err)
	}

	if !ft.stopped.Load() {
		t.Error("ticker not stopped after close")
	}
	if ft.tick() {
		t.Error("heartbeat loop still running after close")
	}
	conn.noWrite(t)
	if h.session.State() != StateClosed {
		t.Errorf("state = %v, want Closed", h.session.State())
	}
}

func TestSession_SecondHelloRestartsHeartbeat(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	conn.send(helloFrame)
	first := h.ticker(t)
	conn.send(`{"op":10,"d":{"heartbeat_interval":1000}}`)
	second := h.ticker(t)

	if second.interval != time.Second {
		t.Errorf("interval = %v, want 1s", second.interval)
	}
	waitFor(t, first.stopped.Load)
	if first.tick() {
		t.Error("old heartbeat loop still running")
	}
}

func TestSession_InvalidHelloIgnored(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	conn.send(`{"op":10,"d":{"heartbeat_interval":0}}`)
	conn.send(messageFrame("10", ""))
	h.events.next(t)

	select {
	case <-h.tickers:
		t.Error("heartbeat started for an invalid hello")
	default:
	}
	if h.session.State() != StateIdentifying {
		t.Errorf("state = %v, want Identifying", h.session.State())
	}
}

func TestSession_IgnoresUnknownAndUntypedFrames(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	conn.send(`{"op":0,"t":"SOMETHING_NEW","d":{"x":1}}`)
	conn.send(`{"op":0,"d":{"x":1}}`)
	conn.send(`{not json`)
	conn.send(`{"op":0,"t":"MESSAGE_CREATE","d":{"channel_id":"5"}}`)
	conn.send(messageFrame("10", ""))

	if _, ok := h.events.next(t).(*events.MessageCreated); !ok {
		t.Fatal("expected MessageCreated")
	}
	h.events.none(t)
	if h.session.State() != StateIdentifying {
		t.Errorf("state = %v, session should survive bad frames", h.session.State())
	}
}

func TestSession_HandlerPanicDropsOnlyThatFrame(t *testing.T) {
	const panicType = "EXPLODING_EVENT"
	handlerTable[panicType] = func(*Handlers, []byte) (events.Event, error) {
		panic("handler failed")
	}
	defer delete(handlerTable, panicType)

	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)
	conn.send(helloFrame)
	h.ticker(t)
	waitState(t, h.session, StateActive)

	conn.send(`{"op":0,"t":"` + panicType + `","s":2,"d":{"x":1}}`)
	conn.send(messageFrame("10", ""))

	e, ok := h.events.next(t).(*events.MessageCreated)
	if !ok {
		t.Fatal("expected MessageCreated after the panicking frame")
	}
	if e.Message.ID != "10" {
		t.Errorf("message id = %s, want 10", e.Message.ID)
	}
	if h.session.State() != StateActive {
		t.Errorf("state = %v, want Active", h.session.State())
	}
	if got := h.session.Sequence(); got != 2 {
		t.Errorf("Sequence() = %d, want 2", got)
	}

	h.cancel()
	_ = h.wait(t)
}

func TestSession_EventsInFrameOrder(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	ids := []string{"1", "2", "3", "4"}
	for _, id := range ids {
		conn.send(messageFrame(id, "9"))
	}
	for _, want := range ids {
		e := h.events.next(t).(*events.MessageCreated)
		if e.Message.ID != want {
			t.Fatalf("got message %s, want %s", e.Message.ID, want)
		}
	}
}

func TestSession_MessageForUncachedGuildGetsStub(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	conn.send(messageFrame("10", "9"))
	e := h.events.next(t).(*events.MessageCreated)

	g := e.Guild()
	if g == nil {
		t.Fatal("Guild() = nil")
	}
	if g.ID() != "9" || !g.IsStub() {
		t.Errorf("Guild() = %q stub=%v, want stub 9", g.ID(), g.IsStub())
	}
	if e.IsPrivate() {
		t.Error("guild message reported as private")
	}
	if e.Message.Author == nil || e.Message.Author.Username != "a" {
		t.Errorf("Author = %+v", e.Message.Author)
	}
}

func TestSession_SequenceTracked(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	conn.send(`{"op":0,"t":"TYPING_START","s":42,"d":{"user_id":"1","channel_id":"2"}}`)
	h.events.next(t)
	if got := h.session.Sequence(); got != 42 {
		t.Errorf("Sequence() = %d, want 42", got)
	}
}

func TestSession_SetPresence(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)

	if err := h.session.SetPresence(entity.StatusDND); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("SetPresence() before connect = %v, want ErrNotConnected", err)
	}

	h.run(t)
	conn.nextWrite(t)
	conn.send(helloFrame)
	h.ticker(t)
	waitState(t, h.session, StateActive)

	if err := h.session.SetPresence(entity.StatusDND); err != nil {
		t.Fatalf("SetPresence() error = %v", err)
	}
	want := `{"op":3,"d":{"since":null,"activities":[],"status":"dnd","afk":false}}`
	if got := conn.nextWrite(t); got != want {
		t.Errorf("presence = %s, want %s", got, want)
	}
}

func TestSession_ServerHeartbeatRequest(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)

	conn.send(`{"op":1,"d":null}`)
	if got := conn.nextWrite(t); got != heartbeatFrame {
		t.Errorf("reply = %s, want heartbeat", got)
	}
}

func TestSession_ResumeAfterDrop(t *testing.T) {
	first, second := newFakeConn(), newFakeConn()
	h := newHarness(t, Config{Reconnect: true}, first, second)
	h.run(t)

	first.nextWrite(t)
	first.send(helloFrame)
	h.ticker(t)
	first.send(`{"op":0,"t":"READY","s":5,"d":{"session_id":"s1","user":{"id":"1","username":"bot"}}}`)
	h.events.next(t)

	first.peerClose(1006)

	want := `{"op":6,"d":{"token":"Bot abc","session_id":"s1","seq":5}}`
	if got := second.nextWrite(t); got != want {
		t.Errorf("resume = %s, want %s", got, want)
	}
	waitState(t, h.session, StateIdentifying)

	second.send(`{"op":0,"t":"RESUMED","s":6,"d":{}}`)
	waitState(t, h.session, StateActive)
	if got := h.dialer.dials.Load(); got != 2 {
		t.Errorf("dials = %d, want 2", got)
	}
}

func TestSession_ReconnectOpcode(t *testing.T) {
	first, second := newFakeConn(), newFakeConn()
	h := newHarness(t, Config{Reconnect: true}, first, second)
	h.run(t)

	first.nextWrite(t)
	first.send(`{"op":0,"t":"READY","s":2,"d":{"session_id":"s1","user":{"id":"1","username":"bot"}}}`)
	h.events.next(t)
	first.send(`{"op":7,"d":null}`)

	first.waitClosed(t)
	if first.code() != CloseReconnect {
		t.Errorf("close code = %d, want %d", first.code(), CloseReconnect)
	}
	want := `{"op":6,"d":{"token":"Bot abc","session_id":"s1","seq":2}}`
	if got := second.nextWrite(t); got != want {
		t.Errorf("resume = %s, want %s", got, want)
	}
}

func TestSession_InvalidSession(t *testing.T) {
	tests := []struct {
		name      string
		resumable string
		want      string
	}{
		{"not resumable", "false", identifyFrame},
		{"resumable", "true", `{"op":6,"d":{"token":"Bot abc","session_id":"s1","seq":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, second := newFakeConn(), newFakeConn()
			h := newHarness(t, Config{Reconnect: true}, first, second)
			h.run(t)

			first.nextWrite(t)
			first.send(readyFrame)
			h.events.next(t)
			first.send(`{"op":9,"d":` + tt.resumable + `}`)

			if got := second.nextWrite(t); got != tt.want {
				t.Errorf("handshake = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSession_FatalCloseEndsSession(t *testing.T) {
	conn, spare := newFakeConn(), newFakeConn()
	h := newHarness(t, Config{Reconnect: true}, conn, spare)
	h.run(t)
	conn.nextWrite(t)

	conn.peerClose(4004)

	err := h.wait(t)
	var ce *CloseError
	if !errors.As(err, &ce) || ce.Code != 4004 || !ce.Fatal() {
		t.Fatalf("Run() = %v, want fatal CloseError 4004", err)
	}
	if got := h.dialer.dials.Load(); got != 1 {
		t.Errorf("dials = %d, want 1", got)
	}
	if h.session.State() != StateClosed {
		t.Errorf("state = %v, want Closed", h.session.State())
	}
}

func TestSession_HeartbeatAckRequired(t *testing.T) {
	first, second := newFakeConn(), newFakeConn()
	h := newHarness(t, Config{Reconnect: true, RequireHeartbeatAck: true}, first, second)
	h.run(t)
	first.nextWrite(t)

	first.send(helloFrame)
	ft := h.ticker(t)

	// Acknowledged beats keep the connection.
	ft.tick()
	first.nextWrite(t)
	first.send(`{"op":11}`)
	waitFor(t, func() bool { return !h.session.awaitingAck.Load() })
	ft.tick()
	first.nextWrite(t)

	// A missing ack closes it.
	ft.tick()
	first.waitClosed(t)
	if first.code() != CloseReconnect {
		t.Errorf("close code = %d, want %d", first.code(), CloseReconnect)
	}
	if got := second.nextWrite(t); got != identifyFrame {
		t.Errorf("after zombie close got %s, want identify", got)
	}
}

func TestSession_CancelStopsRun(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{Reconnect: true}, conn)
	h.run(t)
	conn.nextWrite(t)

	h.cancel()
	if err := h.wait(t); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if conn.code() != CloseNormal {
		t.Errorf("close code = %d, want %d", conn.code(), CloseNormal)
	}
	if h.session.State() != StateClosed {
		t.Errorf("state = %v, want Closed", h.session.State())
	}
}

func TestSession_RunOnce(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, Config{}, conn)
	h.run(t)
	conn.nextWrite(t)
	h.cancel()
	h.wait(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := h.session.Run(ctx); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("second Run() = %v, want ErrInvalidTransition", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
