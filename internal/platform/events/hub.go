package events

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// 通知トピック名。各管理モジュールと打刻が1トピックずつ持つ。
const (
	TopicProperties  = "properties"
	TopicAreas       = "areas"
	TopicEmployees   = "employees"
	TopicSchedules   = "schedules"
	TopicAttendances = "attendances"
)

// 購読チャネルが詰まっていた場合は落とす（best-effort 配信）
const subscriberBuffer = 8

type Event struct {
	ID   string
	Name string
	Data any
}

// Hub: プロセス内のブロードキャスト台帳。
// SSE のグローバル Set をやめて、publish 能力を各サービスへ注入する形にした。
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[chan Event]struct{}
	idgen  func() string
}

func NewHub() *Hub {
	entropy := ulid.Monotonic(rand.Reader, 0)
	var mu sync.Mutex
	return &Hub{
		topics: make(map[string]map[chan Event]struct{}),
		idgen: func() string {
			// SSE の Last-Event-ID 用に時系列で単調なIDを振る
			mu.Lock()
			defer mu.Unlock()
			return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
		},
	}
}

// Subscribe: 購読チャネルを登録して返す。切断時は必ず Unsubscribe すること。
func (h *Hub) Subscribe(topic string) chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(topic string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish: 全購読者へ非ブロッキング送信。配送保証なし。
// 遅い購読者がいてもイベント発行側は待たない。
func (h *Hub) Publish(topic, name string, data any) {
	ev := Event{ID: h.idgen(), Name: name, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.topics[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount: テスト・ヘルスチェック用
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
