package hub

import (
	"context"
	"time"

	"github.com/DoyleJ11/domainguessr-backend/internal/directory"
)

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Code  string
	Entry directory.Entry
	Reply chan error
}

type GetLobby struct {
	Code  string
	Reply chan LobbyReply
}

type LobbyReply struct {
	Entry directory.Entry
	Found bool
}

type RemoveLobby struct {
	Code string
}

type CountLobbies struct {
	Reply chan int
}

type ShutdownHub struct{}

type sweep struct{}

type lobby struct {
	entry   directory.Entry
	expires time.Time
}

// Hub is the in-memory lobby directory. One goroutine owns the map; the
// store methods post into its inbox.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]lobby
	ttl     time.Duration
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func (CreateLobby) isHubMsg()  {}
func (GetLobby) isHubMsg()     {}
func (RemoveLobby) isHubMsg()  {}
func (CountLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}
func (sweep) isHubMsg()        {}

type Option func(*Hub)

func WithClock(now func() time.Time) Option { return func(h *Hub) { h.now = now } }

func NewHub(parent context.Context, ttl time.Duration, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if ttl <= 0 {
		ttl = directory.DefaultTTL
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]lobby),
		ttl:     ttl,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.done }

// Sweep drops expired lobbies. The server calls it on a ticker; lookups
// never return expired entries either way.
func (h *Hub) Sweep() { h.post(h.ctx, sweep{}) }

func (h *Hub) Create(ctx context.Context, code string, e directory.Entry) error {
	reply := make(chan error, 1)
	if err := h.post(ctx, CreateLobby{Code: code, Entry: e, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return context.Canceled
	}
}

func (h *Hub) Lookup(ctx context.Context, code string) (directory.Entry, error) {
	reply := make(chan LobbyReply, 1)
	if err := h.post(ctx, GetLobby{Code: code, Reply: reply}); err != nil {
		return directory.Entry{}, err
	}
	select {
	case r := <-reply:
		if !r.Found {
			return directory.Entry{}, directory.ErrNotFound
		}
		return r.Entry, nil
	case <-ctx.Done():
		return directory.Entry{}, ctx.Err()
	case <-h.done:
		return directory.Entry{}, context.Canceled
	}
}

func (h *Hub) Remove(ctx context.Context, code string) error {
	return h.post(ctx, RemoveLobby{Code: code})
}

func (h *Hub) post(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return context.Canceled
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if _, ok := h.get(msg.Code); ok {
					msg.Reply <- directory.ErrCodeTaken
					break
				}
				h.lobbies[msg.Code] = lobby{entry: msg.Entry, expires: h.now().Add(h.ttl)}
				msg.Reply <- nil

			case GetLobby:
				lb, ok := h.get(msg.Code)
				msg.Reply <- LobbyReply{Entry: lb.entry, Found: ok}

			case RemoveLobby:
				delete(h.lobbies, msg.Code)

			case CountLobbies:
				msg.Reply <- len(h.lobbies)

			case sweep:
				now := h.now()
				for code, lb := range h.lobbies {
					if !now.Before(lb.expires) {
						delete(h.lobbies, code)
					}
				}

			case ShutdownHub:
				clear(h.lobbies)
				h.cancel()
			}
		}
	}
}

func (h *Hub) get(code string) (lobby, bool) {
	lb, ok := h.lobbies[code]
	if !ok {
		return lobby{}, false
	}
	if !h.now().Before(lb.expires) {
		delete(h.lobbies, code)
		return lobby{}, false
	}
	return lb, true
}

func (h *Hub) Len(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.post(ctx, CountLobbies{Reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-h.done:
		return 0, context.Canceled
	}
}
