package transport

import (
	"errors"

	"github.com/DoyleJ11/domainguessr-backend/pkg/protocol"
)

var ErrClosed = errors.New("transport closed")
var ErrBackpressure = errors.New("transport send queue full")

// Channel is the ordered, reliable peer link a match runs over. There is
// exactly one per match; closing it is terminal.
type Channel interface {
	// Send queues msg for delivery. It never waits for the peer.
	Send(msg protocol.Message) error
	// Receive yields inbound messages in send order and is closed when the
	// link goes away.
	Receive() <-chan protocol.Message
	// Err reports why the link closed; nil for a clean close or while open.
	Err() error
	Close() error
}
