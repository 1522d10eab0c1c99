// Package hub keeps track of the browser windows each user has open over
// server-sent event streams and implements the push capabilities on top of them.
package hub

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/recruit-api/internal/push"
)

const (
	EventMessage           = "message"
	EventNotification      = "notification"
	EventCloseNotification = "close_notification"
	EventNavigate          = "navigate"

	defaultBufferSize = 16
	defaultTTL        = 24 * time.Hour
)

var ErrWindowBusy = errors.New("window event buffer full")

// Event is one server-sent event delivered to a window.
type Event struct {
	Name string
	Data interface{}
}

type NavigateEvent struct {
	URL   string `json:"url"`
	Focus bool   `json:"focus"`
}

type Config struct {
	BufferSize int
	// PendingTTL bounds how long unclaimed notifications and window opens are kept.
	PendingTTL time.Duration
}

type Hub struct {
	mu      sync.RWMutex
	windows map[uuid.UUID][]*Window

	// notifications are keyed "<user>/<tag>"; opens are keyed by user.
	notifications *cache.Cache
	opens         *cache.Cache
	bufferSize    int
}

func New(cfg Config) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = defaultTTL
	}
	return &Hub{
		windows:       make(map[uuid.UUID][]*Window),
		notifications: cache.New(cfg.PendingTTL, cfg.PendingTTL),
		opens:         cache.New(cfg.PendingTTL, cfg.PendingTTL),
		bufferSize:    cfg.BufferSize,
	}
}

var _ push.ContextProvider = (*Hub)(nil)

func (h *Hub) Context(userID uuid.UUID) (push.ClientRegistry, push.Platform) {
	uc := &userContext{hub: h, userID: userID}
	return uc, uc
}

// Register adds a window for userID. Shown notifications and a pending window open
// are replayed to it straight away.
func (h *Hub) Register(userID uuid.UUID, windowID string, controlled bool) *Window {
	if windowID == "" {
		windowID = uuid.NewString()
	}
	w := &Window{
		id:         windowID,
		controlled: controlled,
		events:     make(chan Event, h.bufferSize),
		done:       make(chan struct{}),
	}

	h.mu.Lock()
	h.windows[userID] = append(h.windows[userID], w)
	h.mu.Unlock()

	for _, opts := range h.shown(userID) {
		_ = w.send(Event{Name: EventNotification, Data: opts})
	}
	if v, ok := h.opens.Get(userID.String()); ok {
		h.opens.Delete(userID.String())
		_ = w.send(Event{Name: EventNavigate, Data: NavigateEvent{URL: v.(string), Focus: true}})
	}
	return w
}

func (h *Hub) Unregister(userID uuid.UUID, w *Window) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.windows[userID]
	for i, cur := range list {
		if cur == w {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(h.windows, userID)
	} else {
		h.windows[userID] = list
	}
	w.close()
}

// Close ends every attached stream.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.windows {
		for _, w := range list {
			w.close()
		}
		delete(h.windows, userID)
	}
}

// Notification returns a shown notification that has not been closed yet.
func (h *Hub) Notification(userID uuid.UUID, tag string) (push.NotificationOptions, bool) {
	v, ok := h.notifications.Get(notificationKey(userID, tag))
	if !ok {
		return push.NotificationOptions{}, false
	}
	return v.(push.NotificationOptions), true
}

// WindowCount reports the open windows of userID.
func (h *Hub) WindowCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.windows[userID])
}

func (h *Hub) list(userID uuid.UUID, includeUncontrolled bool) []*Window {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Window, 0, len(h.windows[userID]))
	for _, w := range h.windows[userID] {
		if w.controlled || includeUncontrolled {
			out = append(out, w)
		}
	}
	return out
}

func (h *Hub) shown(userID uuid.UUID) []push.NotificationOptions {
	prefix := userID.String() + "/"
	var out []push.NotificationOptions
	for key, item := range h.notifications.Items() {
		if strings.HasPrefix(key, prefix) {
			out = append(out, item.Object.(push.NotificationOptions))
		}
	}
	return out
}

func (h *Hub) broadcast(userID uuid.UUID, ev Event) {
	for _, w := range h.list(userID, true) {
		_ = w.send(ev)
	}
}

func notificationKey(userID uuid.UUID, tag string) string {
	return userID.String() + "/" + tag
}

// userContext scopes the hub to one recipient.
type userContext struct {
	hub    *Hub
	userID uuid.UUID
}

func (u *userContext) ListOpenWindows(ctx context.Context, includeUncontrolled bool) ([]push.WindowHandle, error) {
	windows := u.hub.list(u.userID, includeUncontrolled)
	out := make([]push.WindowHandle, len(windows))
	for i, w := range windows {
		out[i] = w
	}
	return out, nil
}

func (u *userContext) ShowNotification(ctx context.Context, opts push.NotificationOptions) error {
	u.hub.notifications.SetDefault(notificationKey(u.userID, opts.Tag), opts)
	u.hub.broadcast(u.userID, Event{Name: EventNotification, Data: opts})
	return nil
}

func (u *userContext) CloseNotification(ctx context.Context, tag string) error {
	u.hub.notifications.Delete(notificationKey(u.userID, tag))
	u.hub.broadcast(u.userID, Event{Name: EventCloseNotification, Data: map[string]string{"tag": tag}})
	return nil
}

// OpenWindow queues url for the next window the user opens.
func (u *userContext) OpenWindow(ctx context.Context, url string) error {
	u.hub.opens.SetDefault(u.userID.String(), url)
	return nil
}
