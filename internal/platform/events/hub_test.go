package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(TopicEmployees)
	b := h.Subscribe(TopicEmployees)
	defer h.Unsubscribe(TopicEmployees, a)
	defer h.Unsubscribe(TopicEmployees, b)

	h.Publish(TopicEmployees, "employee-created", map[string]any{"employee_id": 1})

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, "employee-created", ev.Name)
			assert.NotEmpty(t, ev.ID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestPublishDoesNotCrossTopics(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(TopicAreas)
	defer h.Unsubscribe(TopicAreas, ch)

	h.Publish(TopicProperties, "property-created", nil)

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q on areas topic", ev.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeRemovesAndCloses(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(TopicSchedules)
	require.Equal(t, 1, h.SubscriberCount(TopicSchedules))

	h.Unsubscribe(TopicSchedules, ch)
	assert.Equal(t, 0, h.SubscriberCount(TopicSchedules))

	_, open := <-ch
	assert.False(t, open)

	// 二重解除しても落ちない
	h.Unsubscribe(TopicSchedules, ch)
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(TopicAttendances)
	defer h.Unsubscribe(TopicAttendances, ch)

	// バッファを超えて発行してもブロックしない
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish(TopicAttendances, "attendance-recorded", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestEventIDsAreMonotonic(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(TopicAttendances)
	defer h.Unsubscribe(TopicAttendances, ch)

	h.Publish(TopicAttendances, "a", nil)
	h.Publish(TopicAttendances, "b", nil)

	first := <-ch
	second := <-ch
	assert.True(t, first.ID < second.ID, "ULIDs must sort by issue order")
}
