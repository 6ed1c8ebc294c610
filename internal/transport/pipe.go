package transport

import (
	"sync"

	"github.com/DoyleJ11/domainguessr-backend/pkg/protocol"
)

const pipeBuffer = 256

type link struct {
	mu     sync.Mutex
	closed bool
	err    error
	ab     chan protocol.Message
	ba     chan protocol.Message
}

// PipeEnd is one side of an in-memory link created by Pipe.
type PipeEnd struct {
	l   *link
	in  chan protocol.Message
	out chan protocol.Message
}

// Pipe returns two connected ends. Closing either end closes both, after
// already queued messages have been drained by the receiver.
func Pipe() (*PipeEnd, *PipeEnd) {
	l := &link{
		ab: make(chan protocol.Message, pipeBuffer),
		ba: make(chan protocol.Message, pipeBuffer),
	}
	return &PipeEnd{l: l, in: l.ba, out: l.ab}, &PipeEnd{l: l, in: l.ab, out: l.ba}
}

func (p *PipeEnd) Send(msg protocol.Message) error {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()

	if p.l.closed {
		return ErrClosed
	}
	select {
	case p.out <- msg:
		return nil
	default:
		return ErrBackpressure
	}
}

func (p *PipeEnd) Receive() <-chan protocol.Message { return p.in }

func (p *PipeEnd) Err() error {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	return p.l.err
}

func (p *PipeEnd) Close() error {
	p.l.shutdown(nil)
	return nil
}

// Fail closes the link as if the connection had dropped.
func (p *PipeEnd) Fail(err error) {
	p.l.shutdown(err)
}

func (l *link) shutdown(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	l.err = err
	close(l.ab)
	close(l.ba)
}
