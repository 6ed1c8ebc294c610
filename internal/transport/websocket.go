package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/domainguessr-backend/pkg/protocol"
)

const (
	sendQueue    = 64
	writeTimeout = 5 * time.Second
	dialTimeout  = 10 * time.Second
)

// WebSocket carries protocol messages over a single websocket connection.
// One goroutine reads, one writes; neither reconnects.
type WebSocket struct {
	conn *websocket.Conn
	log  *zap.Logger

	in  chan protocol.Message
	out chan protocol.Message

	ctx    context.Context
	cancel context.CancelFunc

	closing    chan struct{}
	writerDone chan struct{}
	closeOnce  sync.Once
	closeErr   error

	mu  sync.Mutex
	err error

	wg sync.WaitGroup
}

// Accept upgrades an inbound HTTP request into a peer link.
func Accept(w http.ResponseWriter, r *http.Request, log *zap.Logger) (*WebSocket, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // peers connect from arbitrary origins
	})
	if err != nil {
		return nil, err
	}
	return newWebSocket(conn, log), nil
}

// Dial opens a peer link to url.
func Dial(ctx context.Context, url string, log *zap.Logger) (*WebSocket, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return nil, err
	}
	return newWebSocket(conn, log), nil
}

func newWebSocket(conn *websocket.Conn, log *zap.Logger) *WebSocket {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ws := &WebSocket{
		conn:       conn,
		log:        log,
		in:         make(chan protocol.Message, sendQueue),
		out:        make(chan protocol.Message, sendQueue),
		ctx:        ctx,
		cancel:     cancel,
		closing:    make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	ws.wg.Add(2)
	go ws.readLoop()
	go ws.writeLoop()
	return ws
}

func (ws *WebSocket) Send(msg protocol.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	select {
	case <-ws.ctx.Done():
		return ErrClosed
	case <-ws.closing:
		return ErrClosed
	default:
	}
	select {
	case ws.out <- msg:
		return nil
	case <-ws.ctx.Done():
		return ErrClosed
	default:
		return ErrBackpressure
	}
}

func (ws *WebSocket) Receive() <-chan protocol.Message { return ws.in }

func (ws *WebSocket) Err() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.err
}

func (ws *WebSocket) Close() error {
	ws.closeOnce.Do(func() {
		// Let queued messages (a final "kicked" or "left") go out first.
		close(ws.closing)
		<-ws.writerDone
		ws.closeErr = ws.conn.Close(websocket.StatusNormalClosure, "bye")
		ws.cancel()
	})
	ws.wg.Wait()

	// The peer may have hung up first; that is not worth reporting.
	if websocket.CloseStatus(ws.closeErr) != -1 || errors.Is(ws.closeErr, net.ErrClosed) {
		return nil
	}
	return ws.closeErr
}

func (ws *WebSocket) readLoop() {
	defer ws.wg.Done()
	defer close(ws.in)

	for {
		var msg protocol.Message
		if err := wsjson.Read(ws.ctx, ws.conn, &msg); err != nil {
			ws.fail(err)
			return
		}
		if err := msg.Validate(); err != nil {
			ws.log.Warn("peer_message_dropped", zap.Error(err))
			continue
		}

		select {
		case ws.in <- msg:
		case <-ws.ctx.Done():
			return
		}
	}
}

func (ws *WebSocket) writeLoop() {
	defer ws.wg.Done()
	defer close(ws.writerDone)

	for {
		select {
		case <-ws.ctx.Done():
			return
		case <-ws.closing:
			ws.flush()
			return
		case msg := <-ws.out:
			if !ws.write(msg) {
				return
			}
		}
	}
}

func (ws *WebSocket) flush() {
	for {
		select {
		case msg := <-ws.out:
			if !ws.write(msg) {
				return
			}
		default:
			return
		}
	}
}

func (ws *WebSocket) write(msg protocol.Message) bool {
	ctx, cancel := context.WithTimeout(ws.ctx, writeTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, ws.conn, msg); err != nil {
		ws.fail(err)
		return false
	}
	return true
}

// fail records why the link went down and tears it down. A normal close
// from either side is not an error.
func (ws *WebSocket) fail(err error) {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		err = nil
	}
	if ws.ctx.Err() != nil {
		// We closed it ourselves.
		err = nil
	}

	if err != nil {
		ws.mu.Lock()
		if ws.err == nil {
			ws.err = multierr.Append(ErrClosed, err)
		}
		ws.mu.Unlock()
		ws.log.Warn("peer_link_failed", zap.Error(err))
	}

	ws.cancel()
	_ = ws.conn.CloseNow()
}
