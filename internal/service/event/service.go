package event

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/model"
)

// Issuer builds the notification jobs that accompany newly created confirmation
// requests. Jobs are written to the outbox in the same transaction as the records.
type Issuer struct {
	publicURL       string
	supportContact  string
	whatsAppEnabled bool
	now             func() time.Time
}

type IssuerConfig struct {
	PublicURL       string
	SupportContact  string
	WhatsAppEnabled bool
}

func NewIssuer(cfg IssuerConfig) *Issuer {
	return &Issuer{
		publicURL:       strings.TrimRight(cfg.PublicURL, "/"),
		supportContact:  cfg.SupportContact,
		whatsAppEnabled: cfg.WhatsAppEnabled,
		now:             time.Now,
	}
}

// ConfirmLink is the absolute link embedded in emails and WhatsApp messages.
func (i *Issuer) ConfirmLink(tokenValue string) string {
	return i.publicURL + ConfirmPath(tokenValue)
}

// ConfirmPath is the app-relative target carried in push payloads.
func ConfirmPath(tokenValue string) string {
	return "/confirm?token=" + url.QueryEscape(tokenValue)
}

// Job builds the dispatch job for one interviewer.
func (i *Issuer) Job(kind model.NotificationKind, iv *model.Interviewer, message, actionRequired, tokenValue string) *model.DispatchJob {
	return &model.DispatchJob{
		Intent: model.NotificationIntent{
			Kind:               kind,
			RecipientFirstName: FirstName(iv.Name),
			Message:            message,
			ActionRequired:     actionRequired,
			ActionLink:         i.ConfirmLink(tokenValue),
			SupportContact:     i.supportContact,
			TargetURL:          ConfirmPath(tokenValue),
		},
		Recipient: model.Recipient{
			UserID: iv.ID,
			Name:   iv.Name,
			Email:  iv.Email,
			Phone:  iv.Phone,
		},
		Channels: i.Channels(iv),
	}
}

// Channels lists the channels an interviewer can be reached on.
func (i *Issuer) Channels(iv *model.Interviewer) []model.Channel {
	var channels []model.Channel
	if iv.Email != "" {
		channels = append(channels, model.ChannelEmail)
	}
	if i.whatsAppEnabled && iv.Phone != "" {
		channels = append(channels, model.ChannelWhatsApp)
	}
	if iv.PushEnabled {
		channels = append(channels, model.ChannelPush)
	}
	return channels
}

// NewDispatchEvent wraps a job in a pending outbox row.
func (i *Issuer) NewDispatchEvent(job *model.DispatchJob) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := i.now().UTC()
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventTypeNotificationDispatch,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DecodeDispatchJob reverses NewDispatchEvent.
func DecodeDispatchJob(evt *model.OutboxEvent) (*model.DispatchJob, error) {
	if evt.EventType != model.EventTypeNotificationDispatch {
		return nil, fmt.Errorf("unexpected event type %q", evt.EventType)
	}
	var job model.DispatchJob
	if err := json.Unmarshal(evt.Payload, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dispatch job: %w", err)
	}
	return &job, nil
}

func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
