package push

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/model"
)

var (
	// ErrMalformedPayload is returned when a push body is not a JSON push payload.
	ErrMalformedPayload = errors.New("malformed push payload")
	ErrWindowClosed     = errors.New("window closed")
)

const MessageTypeInAppNotification = "IN_APP_NOTIFICATION"

// InAppMessage is posted to every open window for toast display.
type InAppMessage struct {
	Type    string            `json:"type"`
	Payload model.PushPayload `json:"payload"`
}

// NotificationOptions describes a system notification.
type NotificationOptions struct {
	Tag      string         `json:"tag"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Icon     string         `json:"icon"`
	Badge    string         `json:"badge,omitempty"`
	Renotify bool           `json:"renotify"`
	Data     model.PushData `json:"data"`
}

// ClickEvent is raised when the user activates a shown notification.
type ClickEvent struct {
	Tag  string         `json:"tag"`
	Data model.PushData `json:"data"`
}

type WindowHandle interface {
	ID() string
	PostMessage(ctx context.Context, msg InAppMessage) error
	NavigateAndFocus(ctx context.Context, url string) error
}

// ClientRegistry enumerates the recipient's open windows.
type ClientRegistry interface {
	ListOpenWindows(ctx context.Context, includeUncontrolled bool) ([]WindowHandle, error)
}

// Platform shows and dismisses system notifications and opens new windows.
type Platform interface {
	ShowNotification(ctx context.Context, opts NotificationOptions) error
	CloseNotification(ctx context.Context, tag string) error
	OpenWindow(ctx context.Context, url string) error
}

// ContextProvider returns the push context of one recipient.
type ContextProvider interface {
	Context(userID uuid.UUID) (ClientRegistry, Platform)
}
