package mailer

import (
	"context"
	"sync"

	"github.com/tahcohcat/fitchallenge-web/internal/logger"
)

type Message struct {
	To   string
	Link string
}

// Dummy logs instead of sending and keeps what it was asked to send.
type Dummy struct {
	mu   sync.Mutex
	sent []Message
}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) SendPasswordReset(_ context.Context, to, link string) error {
	d.mu.Lock()
	d.sent = append(d.sent, Message{To: to, Link: link})
	d.mu.Unlock()

	logger.New().Debug("no mail provider configured, dropping password reset email", "to_email", to)
	return nil
}

// Sent returns a copy of the messages recorded so far.
func (d *Dummy) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.sent))
	copy(out, d.sent)
	return out
}

func (d *Dummy) Name() string {
	return "dummy"
}
