package mqtt

// outbound is a serialized message waiting for the broker.
type outbound struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog holds messages published while the broker was unreachable.
// When full, the oldest message is discarded. Callers synchronize.
type backlog struct {
	items   []outbound
	limit   int
	dropped uint64
}

func newBacklog(limit int) *backlog {
	if limit < 1 {
		limit = 1
	}
	return &backlog{limit: limit}
}

// add queues msg and reports whether an older message had to be discarded.
func (b *backlog) add(msg outbound) bool {
	evicted := false
	if len(b.items) == b.limit {
		copy(b.items, b.items[1:])
		b.items = b.items[:len(b.items)-1]
		b.dropped++
		evicted = true
	}
	b.items = append(b.items, msg)
	return evicted
}

// take returns the queued messages oldest first and empties the backlog.
func (b *backlog) take() []outbound {
	if len(b.items) == 0 {
		return nil
	}
	out := b.items
	b.items = nil
	return out
}

func (b *backlog) size() int {
	return len(b.items)
}
