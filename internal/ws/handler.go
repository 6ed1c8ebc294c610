package ws

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/domainguessr-backend/internal/directory"
	"github.com/DoyleJ11/domainguessr-backend/internal/transport"
)

// PeerGate admits the single responder of a hosted lobby. The host mounts
// Handler on its peer listener and reads the accepted link from Links.
type PeerGate struct {
	code  string
	log   *zap.Logger
	links chan transport.Channel

	mu    sync.Mutex
	taken bool
}

func NewPeerGate(code string, log *zap.Logger) *PeerGate {
	return &PeerGate{
		code:  directory.NormalizeCode(code),
		log:   log,
		links: make(chan transport.Channel, 1),
	}
}

// Links yields exactly one accepted peer link.
func (g *PeerGate) Links() <-chan transport.Channel { return g.links }

func (g *PeerGate) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := directory.NormalizeCode(r.URL.Query().Get("code"))
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		if code != g.code {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		if !g.claim() {
			http.Error(w, "lobby full", http.StatusConflict)
			return
		}

		link, err := transport.Accept(w, r, g.log)
		if err != nil {
			g.log.Warn("peer_accept_failed", zap.Error(err))
			g.release()
			return
		}
		g.log.Info("peer_connected", zap.String("code", code), zap.String("remote", r.RemoteAddr))
		g.links <- link
	}
}

func (g *PeerGate) claim() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.taken {
		return false
	}
	g.taken = true
	return true
}

func (g *PeerGate) release() {
	g.mu.Lock()
	g.taken = false
	g.mu.Unlock()
}
