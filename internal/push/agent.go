package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
)

// Agent handles push and notification-click events for one recipient context.
type Agent struct {
	clients  ClientRegistry
	platform Platform
	origin   *url.URL
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewAgent(clients ClientRegistry, platform Platform, origin *url.URL, logger *logger.Logger, metrics *metrics.Metrics) *Agent {
	return &Agent{
		clients:  clients,
		platform: platform,
		origin:   origin,
		logger:   logger,
		metrics:  metrics,
	}
}

// Decode parses a push body. Anything that is not a JSON object is malformed.
func Decode(raw []byte) (*model.PushPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}
	var payload model.PushPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &payload, nil
}

// OnPush broadcasts the payload to every open window and shows a system
// notification, returning once both have completed. A malformed payload is logged
// and dropped without showing anything.
func (a *Agent) OnPush(ctx context.Context, raw []byte) error {
	payload, err := Decode(raw)
	if err != nil {
		a.logger.Warn("dropping push event", "error", err.Error())
		a.count("push", "malformed")
		return nil
	}

	opts := NotificationOptions{
		Tag:      uuid.NewString(),
		Title:    payload.Title,
		Body:     payload.Body,
		Icon:     payload.Icon,
		Badge:    payload.Badge,
		Renotify: true,
		Data:     payload.Data,
	}

	var g errgroup.Group
	g.Go(func() error {
		return a.broadcast(ctx, InAppMessage{Type: MessageTypeInAppNotification, Payload: *payload})
	})
	g.Go(func() error {
		if err := a.platform.ShowNotification(ctx, opts); err != nil {
			return fmt.Errorf("failed to show notification: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.count("push", "error")
		return err
	}
	a.count("push", "shown")
	return nil
}

func (a *Agent) broadcast(ctx context.Context, msg InAppMessage) error {
	windows, err := a.clients.ListOpenWindows(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	for _, w := range windows {
		if err := w.PostMessage(ctx, msg); err != nil {
			a.logger.Debug("failed to post in-app message", "window_id", w.ID(), "error", err.Error())
		}
	}
	return nil
}

// OnNotificationClick dismisses the notification and performs exactly one
// navigation: the first open window is navigated and focused, or a new window is
// opened when there is none or it has gone away.
func (a *Agent) OnNotificationClick(ctx context.Context, evt ClickEvent) error {
	if err := a.platform.CloseNotification(ctx, evt.Tag); err != nil {
		a.logger.Debug("failed to close notification", "tag", evt.Tag, "error", err.Error())
	}

	target := a.ResolveTarget(evt.Data.URL)

	windows, err := a.clients.ListOpenWindows(ctx, true)
	if err != nil {
		a.logger.Warn("failed to list windows", "error", err.Error())
		windows = nil
	}

	if len(windows) > 0 {
		err := windows[0].NavigateAndFocus(ctx, target)
		if err == nil {
			a.count("click", "navigated")
			return nil
		}
		a.logger.Debug("navigate failed, opening window", "window_id", windows[0].ID(), "error", err.Error())
	}

	if err := a.platform.OpenWindow(ctx, target); err != nil {
		a.count("click", "error")
		return fmt.Errorf("failed to open window: %w", err)
	}
	a.count("click", "opened")
	return nil
}

// ResolveTarget resolves raw against the app origin. Targets on other origins and
// unparsable targets resolve to the origin root.
func (a *Agent) ResolveTarget(raw string) string {
	root := a.origin.ResolveReference(&url.URL{Path: "/"})
	if raw == "" {
		return root.String()
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return root.String()
	}
	abs := a.origin.ResolveReference(ref)
	if abs.Scheme != a.origin.Scheme || abs.Host != a.origin.Host {
		return root.String()
	}
	return abs.String()
}

func (a *Agent) count(event, outcome string) {
	if a.metrics != nil {
		a.metrics.PushEvents.WithLabelValues(event, outcome).Inc()
	}
}
