package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recruit-api/internal/model"
)

func TestIssuerJob(t *testing.T) {
	issuer := NewIssuer(IssuerConfig{
		PublicURL:       "https://ops.example.com/",
		SupportContact:  "ops@example.com",
		WhatsAppEnabled: true,
	})
	iv := &model.Interviewer{Name: "Meera  Iyer", Email: "meera@example.com", Phone: "+919800000000", PushEnabled: true}
	iv.ID = uuid.New()

	job := issuer.Job(model.KindPaymentConfirmationRequest, iv, "12 interviews", "Reply by the 5th", "a.b+c")

	assert.Equal(t, "Meera", job.Intent.RecipientFirstName)
	assert.Equal(t, "https://ops.example.com/confirm?token=a.b%2Bc", job.Intent.ActionLink)
	assert.Equal(t, "/confirm?token=a.b%2Bc", job.Intent.TargetURL)
	assert.Equal(t, "ops@example.com", job.Intent.SupportContact)
	assert.Equal(t, iv.ID, job.Recipient.UserID)
	assert.Equal(t, []model.Channel{model.ChannelEmail, model.ChannelWhatsApp, model.ChannelPush}, job.Channels)
}

func TestIssuerChannels(t *testing.T) {
	issuer := NewIssuer(IssuerConfig{PublicURL: "https://ops.example.com"})

	assert.Equal(t, []model.Channel{model.ChannelEmail},
		issuer.Channels(&model.Interviewer{Email: "a@example.com", Phone: "+1"}))
	assert.Empty(t, issuer.Channels(&model.Interviewer{}))
}

func TestDispatchEventRoundTrip(t *testing.T) {
	issuer := NewIssuer(IssuerConfig{PublicURL: "https://ops.example.com"})
	iv := &model.Interviewer{Name: "Ravi", Email: "ravi@example.com"}
	iv.ID = uuid.New()
	job := issuer.Job(model.KindBookingAvailabilityRequest, iv, "Friday 10:00", "", "tok")

	evt, err := issuer.NewDispatchEvent(job)
	require.NoError(t, err)
	assert.Equal(t, model.EventTypeNotificationDispatch, evt.EventType)
	assert.Equal(t, model.OutboxStatusPending, evt.Status)

	decoded, err := DecodeDispatchJob(evt)
	require.NoError(t, err)
	assert.Equal(t, job, decoded)

	evt.EventType = "other"
	_, err = DecodeDispatchJob(evt)
	assert.Error(t, err)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Asha", FirstName(" Asha Rao "))
	assert.Equal(t, "", FirstName("   "))
}
