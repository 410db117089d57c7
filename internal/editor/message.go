package editor

import (
	"sync"
	"time"
)

const DefaultMessageTTL = 5 * time.Second

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

type Message struct {
	Text string      `json:"text"`
	Kind MessageKind `json:"kind"`
}

// Banner — сообщение редактора, которое гаснет само через ttl.
type Banner struct {
	mu      sync.Mutex
	msg     Message
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewBanner(ttl time.Duration, now func() time.Time) *Banner {
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Banner{ttl: ttl, now: now}
}

func (b *Banner) Set(text string, kind MessageKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msg = Message{Text: text, Kind: kind}
	b.expires = b.now().Add(b.ttl)
}

func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msg = Message{}
}

// Current возвращает активное сообщение; после истечения ttl — пусто.
func (b *Banner) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.msg.Text == "" || !b.now().Before(b.expires) {
		return Message{}, false
	}
	return b.msg, true
}
