package core

import (
	"context"

	"github.com/vovakirdan/chatd/internal/proto"
)

// Run is the delivery worker. It sleeps until the backlog signals a push or a
// login, then attempts every pending message. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info().Msg("delivery worker started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info().Int("pending", h.backlog.Len()).Msg("delivery worker stopped")
			return
		case <-h.backlog.Wake():
			h.deliverPending()
		}
	}
}

// deliverPending drains the backlog once and returns how many messages were delivered.
// Messages for offline receivers go back to the front of the backlog in their original order.
// After a failed write to a receiver, the rest of that receiver's messages are held back
// so a later retry cannot overtake an earlier message.
func (h *Hub) deliverPending() int {
	batch := h.backlog.drain()
	if len(batch) == 0 {
		return 0
	}

	var (
		undelivered []PendingMessage
		failed      map[string]bool
		delivered   int
	)
	for _, m := range batch {
		if failed[m.To] {
			undelivered = append(undelivered, m)
			continue
		}
		sess, online := h.sessions.Get(m.To)
		if !online {
			undelivered = append(undelivered, m)
			continue
		}
		if err := sess.Send(proto.Delivery(m.Label, m.Body)); err != nil {
			h.log.Warn().Err(err).Str("user", m.To).Str("conn_id", sess.ID).Msg("delivery failed, requeueing")
			// A broken writer cannot recover; closing it lets the handler tear the session down.
			_ = sess.Close()
			if failed == nil {
				failed = make(map[string]bool)
			}
			failed[m.To] = true
			undelivered = append(undelivered, m)
			continue
		}
		delivered++
		h.log.Debug().Str("from", m.Label).Str("user", m.To).Uint64("seq", m.Seq).Msg("message delivered")
	}

	h.backlog.requeue(undelivered)
	return delivered
}
