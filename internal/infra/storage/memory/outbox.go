package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "spacio/internal/app/outbox"
	infraoutbox "spacio/internal/infra/outbox"
)

// Outbox keeps committed event documents in memory for the relay worker.
type Outbox struct {
	mu   sync.Mutex
	docs []*infraoutbox.EventDocument
	now  func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

// Add appends a record outside of a unit of work.
func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.append(record)
	return nil
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, rec := range records {
		doc := infraoutbox.NewEventDocument(rec, now)
		o.docs = append(o.docs, &doc)
	}
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, doc := range o.docs {
		if doc.State != infraoutbox.StateNew && doc.State != infraoutbox.StateFailed {
			continue
		}
		if doc.NextAttempt.After(now) {
			continue
		}
		doc.State = infraoutbox.StateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		cp := *doc
		return &cp, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.update(id, func(doc *infraoutbox.EventDocument) {
		doc.State = infraoutbox.StateSent
		doc.SentAt = o.now().UTC()
	})
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.update(id, func(doc *infraoutbox.EventDocument) {
		doc.State = infraoutbox.StateFailed
		doc.NextAttempt = next
		doc.LastError = errMsg
		doc.Attempts++
	})
	return nil
}

func (o *Outbox) update(id string, fn func(*infraoutbox.EventDocument)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.docs {
		if doc.ID == id {
			fn(doc)
			return
		}
	}
}

// Documents returns a snapshot of every document, oldest first.
func (o *Outbox) Documents() []infraoutbox.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.docs))
	for _, doc := range o.docs {
		out = append(out, *doc)
	}
	return out
}

var (
	_ appoutbox.Outbox   = (*Outbox)(nil)
	_ infraoutbox.Source = (*Outbox)(nil)
)
