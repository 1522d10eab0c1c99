package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recruit-api/internal/model"
)

func paymentIntent() model.NotificationIntent {
	return model.NotificationIntent{
		Kind:               model.KindPaymentConfirmationRequest,
		RecipientFirstName: "Asha",
		Message:            "You conducted 12 interviews in 2026-09 for a total of ₹6000.00.",
		ActionRequired:     "Confirm or dispute by the 5th.",
		ActionLink:         "https://ops.example.com/confirm?token=abc",
		SupportContact:     "ops@example.com",
		TargetURL:          "/confirm?token=abc",
	}
}

func newEngine() *Engine {
	return NewEngine(Options{AppName: "Recruit Ops", Icon: "/icons/icon-192.png", Badge: "/icons/badge-72.png"})
}

func TestRender_Push(t *testing.T) {
	msg, err := newEngine().Render(paymentIntent(), model.ChannelPush)
	require.NoError(t, err)
	require.NotNil(t, msg.Push)

	assert.Equal(t, model.ChannelPush, msg.Channel)
	assert.Equal(t, "Payment confirmation needed", msg.Push.Title)
	assert.Equal(t, paymentIntent().Message, msg.Push.Body)
	assert.Equal(t, "/icons/icon-192.png", msg.Push.Icon)
	assert.Equal(t, "/icons/badge-72.png", msg.Push.Badge)
	assert.Equal(t, "/confirm?token=abc", msg.Push.Data.URL)
}

func TestRender_EmailIncludesOptionalSections(t *testing.T) {
	msg, err := newEngine().Render(paymentIntent(), model.ChannelEmail)
	require.NoError(t, err)
	require.NotNil(t, msg.Email)

	assert.Equal(t, "Please confirm your monthly interview payment", msg.Email.Subject)
	assert.Contains(t, msg.Email.HTML, "Hi Asha,")
	assert.Contains(t, msg.Email.HTML, "Action Required")
	assert.Contains(t, msg.Email.HTML, `href="https://ops.example.com/confirm?token=abc"`)
	assert.Contains(t, msg.Email.Text, "Action Required:\nConfirm or dispute by the 5th.")
	assert.Contains(t, msg.Email.Text, "Respond here: https://ops.example.com/confirm?token=abc")
}

func TestRender_OmitsActionRequiredWhenAbsent(t *testing.T) {
	intent := paymentIntent()
	intent.ActionRequired = ""

	email, err := newEngine().Render(intent, model.ChannelEmail)
	require.NoError(t, err)
	assert.NotContains(t, email.Email.HTML, "Action Required")
	assert.NotContains(t, email.Email.Text, "Action Required")

	wa, err := newEngine().Render(intent, model.ChannelWhatsApp)
	require.NoError(t, err)
	assert.NotContains(t, wa.WhatsApp, "Action Required")
	assert.Contains(t, wa.WhatsApp, "*Payment confirmation*")
	assert.Contains(t, wa.WhatsApp, intent.ActionLink)
}

func TestRender_EmailEscapesHTML(t *testing.T) {
	intent := model.NotificationIntent{
		Kind:               model.KindGenericNotice,
		RecipientFirstName: "<b>Eve</b>",
		Message:            "<script>alert(1)</script>",
	}
	msg, err := newEngine().Render(intent, model.ChannelEmail)
	require.NoError(t, err)
	assert.NotContains(t, msg.Email.HTML, "<script>")
	assert.Contains(t, msg.Email.HTML, "&lt;script&gt;")
}

func TestRender_Deterministic(t *testing.T) {
	e := newEngine()
	for _, ch := range []model.Channel{model.ChannelPush, model.ChannelEmail, model.ChannelWhatsApp} {
		a, err := e.Render(paymentIntent(), ch)
		require.NoError(t, err)
		b, err := e.Render(paymentIntent(), ch)
		require.NoError(t, err)
		assert.Equal(t, a, b, "channel %s", ch)
	}
}

func TestRender_Validation(t *testing.T) {
	e := newEngine()

	tests := []struct {
		name    string
		mutate  func(*model.NotificationIntent)
		channel model.Channel
		wantErr error
	}{
		{"missing first name", func(i *model.NotificationIntent) { i.RecipientFirstName = " " }, model.ChannelEmail, ErrMissingField},
		{"missing message", func(i *model.NotificationIntent) { i.Message = "" }, model.ChannelWhatsApp, ErrMissingField},
		{"missing action link", func(i *model.NotificationIntent) { i.ActionLink = "" }, model.ChannelEmail, ErrMissingField},
		{"missing target url for push", func(i *model.NotificationIntent) { i.TargetURL = "" }, model.ChannelPush, ErrMissingField},
		{"unknown kind", func(i *model.NotificationIntent) { i.Kind = "reminder" }, model.ChannelEmail, ErrUnknownKind},
		{"unknown channel", func(i *model.NotificationIntent) {}, model.Channel("fax"), ErrUnsupportedChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := paymentIntent()
			tt.mutate(&intent)
			_, err := e.Render(intent, tt.channel)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRender_WelcomeWithoutMessage(t *testing.T) {
	intent := model.NotificationIntent{Kind: model.KindWelcome, RecipientFirstName: "Ravi", TargetURL: "/dashboard"}

	push, err := newEngine().Render(intent, model.ChannelPush)
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard, Ravi!", push.Push.Body)

	wa, err := newEngine().Render(intent, model.ChannelWhatsApp)
	require.NoError(t, err)
	assert.Contains(t, wa.WhatsApp, "welcome to Recruit Ops")
	assert.NotContains(t, wa.WhatsApp, "Support:")
}

func TestRender_AppNameInTitlesAndSubjects(t *testing.T) {
	engine := NewEngine(Options{AppName: "Hiring Desk"})
	welcome := model.NotificationIntent{Kind: model.KindWelcome, RecipientFirstName: "Ravi", TargetURL: "/dashboard"}

	push, err := engine.Render(welcome, model.ChannelPush)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Hiring Desk", push.Push.Title)

	email, err := engine.Render(welcome, model.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Hiring Desk", email.Email.Subject)

	notice := model.NotificationIntent{Kind: model.KindGenericNotice, RecipientFirstName: "Ravi", Message: "Office closed Friday"}
	email, err = engine.Render(notice, model.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, "A new update from Hiring Desk", email.Email.Subject)
	assert.NotContains(t, email.Email.Subject, "Recruit Ops")
}
