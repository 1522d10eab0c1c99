package model

import (
	"github.com/google/uuid"
)

// NotificationKind selects the fixed template used to render an intent.
type NotificationKind string

const (
	KindWelcome                    NotificationKind = "welcome"
	KindGenericNotice              NotificationKind = "generic_notice"
	KindPaymentConfirmationRequest NotificationKind = "payment_confirmation_request"
	KindBookingAvailabilityRequest NotificationKind = "booking_availability_request"
)

// Channel is an outbound delivery channel.
type Channel string

const (
	ChannelPush     Channel = "push"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// NotificationIntent is an immutable description of something a user should be told.
// It is rendered per channel by the template engine.
type NotificationIntent struct {
	Kind               NotificationKind `json:"kind"`
	RecipientFirstName string           `json:"recipient_first_name"`
	Message            string           `json:"message"`
	ActionRequired     string           `json:"action_required,omitempty"`
	ActionLink         string           `json:"action_link,omitempty"`
	SupportContact     string           `json:"support_contact"`
	TargetURL          string           `json:"target_url"`
}

// PushData is the data block embedded in a push payload.
type PushData struct {
	URL string `json:"url"`
}

// PushPayload is the wire JSON posted by the push transport.
type PushPayload struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Icon  string   `json:"icon"`
	Badge string   `json:"badge,omitempty"`
	Data  PushData `json:"data"`
}

// EmailContent is a rendered email.
type EmailContent struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// RenderedMessage holds the output of rendering an intent for exactly one channel.
type RenderedMessage struct {
	Channel  Channel       `json:"channel"`
	Push     *PushPayload  `json:"push,omitempty"`
	Email    *EmailContent `json:"email,omitempty"`
	WhatsApp string        `json:"whatsapp,omitempty"`
}

// Recipient is the contact information needed to reach a user on each channel.
type Recipient struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Phone  string    `json:"phone,omitempty"`
}

// DispatchJob is the outbox payload for a notification fan-out.
type DispatchJob struct {
	Intent    NotificationIntent `json:"intent"`
	Recipient Recipient          `json:"recipient"`
	Channels  []Channel          `json:"channels"`
}

// PushEnvelope is published on the push broker channel for a single recipient.
type PushEnvelope struct {
	UserID  uuid.UUID   `json:"user_id"`
	Payload PushPayload `json:"payload"`
}

const (
	EventTypeNotificationDispatch = "notification.dispatch"
	EventTypeConfirmationDecided  = "confirmation.decided"
)
