package testutil

import (
	"context"
	"sync"

	"uptask/internal/notify"
)

// Sent is one recorded notification.
type Sent struct {
	Kind string
	notify.Message
}

// RecordingNotifier keeps every notification it is asked to send. Err, when
// set, is returned from every send after recording.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

var _ notify.Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) SendConfirmation(_ context.Context, msg notify.Message) error {
	return n.record(notify.KindConfirmation, msg)
}

func (n *RecordingNotifier) SendPasswordReset(_ context.Context, msg notify.Message) error {
	return n.record(notify.KindReset, msg)
}

func (n *RecordingNotifier) record(kind string, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Sent{Kind: kind, Message: msg})
	return n.Err
}

func (n *RecordingNotifier) Sent() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Sent(nil), n.sent...)
}

// Last returns the most recent notification, or the zero value.
func (n *RecordingNotifier) Last() Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return Sent{}
	}
	return n.sent[len(n.sent)-1]
}
