package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// ActivityEventDownload is published to a note owner when their note is downloaded.
	ActivityEventDownload = "note-downloaded"
	// ActivityEventLike is published to a note owner when their note is liked.
	ActivityEventLike = "note-liked"
	// ActivityEventFollow is published to a user when someone starts following them.
	ActivityEventFollow = "user-followed"
)

// ActivityEvent is a per-user engagement notification.
type ActivityEvent struct {
	UserID    uint      `json:"-"`
	EventType string    `json:"event_type"`
	NoteID    uint      `json:"note_id,omitempty"`
	ActorID   uint      `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityDispatcher fans engagement events out to per-user subscribers.
// Publishing never blocks: slow subscribers drop events.
type ActivityDispatcher struct {
	mu          sync.RWMutex
	subscribers map[uint]map[int64]*activitySubscriber
	nextID      int64
	bufferSize  int
}

type activitySubscriber struct {
	id     int64
	stream chan ActivityEvent
}

// NewActivityDispatcher constructs an empty dispatcher.
func NewActivityDispatcher() *ActivityDispatcher {
	return &ActivityDispatcher{
		subscribers: make(map[uint]map[int64]*activitySubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a stream of events addressed to the user. The stream is
// torn down when the context is done or the returned cleanup is called.
func (d *ActivityDispatcher) Subscribe(ctx context.Context, userID uint) (<-chan ActivityEvent, func()) {
	if userID == 0 {
		ch := make(chan ActivityEvent)
		close(ch)
		return ch, func() {}
	}
	subscriber := &activitySubscriber{
		id:     d.nextSequence(),
		stream: make(chan ActivityEvent, d.bufferSize),
	}
	d.registerSubscriber(userID, subscriber)
	cleanup := func() {
		d.unregisterSubscriber(userID, subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the event to every live subscriber of the addressed user.
func (d *ActivityDispatcher) Publish(event ActivityEvent) {
	if d == nil || event.UserID == 0 || event.EventType == "" {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	d.mu.RLock()
	subscribers := d.subscribers[event.UserID]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*activitySubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- event:
		default:
		}
	}
}

func (d *ActivityDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *ActivityDispatcher) registerSubscriber(userID uint, subscriber *activitySubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[userID]; !ok {
		d.subscribers[userID] = make(map[int64]*activitySubscriber)
	}
	d.subscribers[userID][subscriber.id] = subscriber
}

func (d *ActivityDispatcher) unregisterSubscriber(userID uint, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[userID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, userID)
		}
	}
	d.mu.Unlock()
}

func (h *httpHandler) handleActivityStream(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	stream, cleanup := h.activity.Subscribe(c.Request.Context(), userID)
	defer cleanup()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent(event.EventType, event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
