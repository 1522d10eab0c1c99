package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/service/render"
	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
)

type fakeWindow struct {
	id          string
	mu          sync.Mutex
	posted      []InAppMessage
	navigated   []string
	navigateErr error
	postErr     error
}

func (w *fakeWindow) ID() string { return w.id }

func (w *fakeWindow) PostMessage(ctx context.Context, msg InAppMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.postErr != nil {
		return w.postErr
	}
	w.posted = append(w.posted, msg)
	return nil
}

func (w *fakeWindow) NavigateAndFocus(ctx context.Context, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.navigateErr != nil {
		return w.navigateErr
	}
	w.navigated = append(w.navigated, url)
	return nil
}

type fakeRegistry struct {
	windows             []*fakeWindow
	includeUncontrolled []bool
	err                 error
	mu                  sync.Mutex
}

func (r *fakeRegistry) ListOpenWindows(ctx context.Context, includeUncontrolled bool) ([]WindowHandle, error) {
	r.mu.Lock()
	r.includeUncontrolled = append(r.includeUncontrolled, includeUncontrolled)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]WindowHandle, len(r.windows))
	for i, w := range r.windows {
		out[i] = w
	}
	return out, nil
}

type fakePlatform struct {
	mu      sync.Mutex
	shown   []NotificationOptions
	closed  []string
	opened  []string
	showErr error
}

func (p *fakePlatform) ShowNotification(ctx context.Context, opts NotificationOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.showErr != nil {
		return p.showErr
	}
	p.shown = append(p.shown, opts)
	return nil
}

func (p *fakePlatform) CloseNotification(ctx context.Context, tag string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, tag)
	return nil
}

func (p *fakePlatform) OpenWindow(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = append(p.opened, url)
	return nil
}

func newAgent(t *testing.T, windows ...*fakeWindow) (*Agent, *fakeRegistry, *fakePlatform, *metrics.Metrics) {
	t.Helper()
	origin, err := url.Parse("https://ops.example.com")
	require.NoError(t, err)
	reg := &fakeRegistry{windows: windows}
	platform := &fakePlatform{}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	return NewAgent(reg, platform, origin, logger.Nop(), m), reg, platform, m
}

const payloadJSON = `{"title":"Payment confirmation needed","body":"Please confirm","icon":"/icon.png","data":{"url":"/confirm?token=abc"}}`

func TestOnPush_BroadcastsAndShows(t *testing.T) {
	w1, w2 := &fakeWindow{id: "w1"}, &fakeWindow{id: "w2"}
	agent, reg, platform, m := newAgent(t, w1, w2)

	require.NoError(t, agent.OnPush(context.Background(), []byte(payloadJSON)))

	assert.Equal(t, []bool{true}, reg.includeUncontrolled)
	for _, w := range []*fakeWindow{w1, w2} {
		require.Len(t, w.posted, 1)
		assert.Equal(t, MessageTypeInAppNotification, w.posted[0].Type)
		assert.Equal(t, "Payment confirmation needed", w.posted[0].Payload.Title)
	}

	require.Len(t, platform.shown, 1)
	opts := platform.shown[0]
	assert.Equal(t, "Please confirm", opts.Body)
	assert.Equal(t, "/confirm?token=abc", opts.Data.URL)
	assert.NotEmpty(t, opts.Tag)
	assert.True(t, opts.Renotify)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushEvents.WithLabelValues("push", "shown")))
}

func TestOnPush_InAppMessageWireFormat(t *testing.T) {
	w := &fakeWindow{id: "w1"}
	agent, _, _, _ := newAgent(t, w)
	require.NoError(t, agent.OnPush(context.Background(), []byte(payloadJSON)))

	data, err := json.Marshal(w.posted[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"IN_APP_NOTIFICATION","payload":`+payloadJSON+`}`, string(data))
}

func TestOnPush_MalformedPayload(t *testing.T) {
	for _, raw := range []string{"", "not json", "[1,2]", `{"title":`, "42", "null", "  null\n", `"text"`, "true"} {
		w := &fakeWindow{id: "w1"}
		agent, reg, platform, m := newAgent(t, w)

		assert.NoError(t, agent.OnPush(context.Background(), []byte(raw)), raw)
		assert.Empty(t, platform.shown, raw)
		assert.Empty(t, w.posted, raw)
		assert.Empty(t, reg.includeUncontrolled, raw)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.PushEvents.WithLabelValues("push", "malformed")), raw)
	}
}

func TestOnPush_NoWindowsStillShows(t *testing.T) {
	agent, _, platform, _ := newAgent(t)
	require.NoError(t, agent.OnPush(context.Background(), []byte(payloadJSON)))
	assert.Len(t, platform.shown, 1)
}

func TestOnPush_WindowFailureDoesNotStopOthers(t *testing.T) {
	broken := &fakeWindow{id: "broken", postErr: ErrWindowClosed}
	ok := &fakeWindow{id: "ok"}
	agent, _, platform, _ := newAgent(t, broken, ok)

	require.NoError(t, agent.OnPush(context.Background(), []byte(payloadJSON)))
	assert.Len(t, ok.posted, 1)
	assert.Len(t, platform.shown, 1)
}

func TestOnPush_WaitsForBothAndReportsErrors(t *testing.T) {
	w := &fakeWindow{id: "w1"}
	agent, _, platform, _ := newAgent(t, w)
	platform.showErr = errors.New("permission denied")

	err := agent.OnPush(context.Background(), []byte(payloadJSON))
	assert.Error(t, err)
	// the broadcast still completed
	assert.Len(t, w.posted, 1)
}

func TestOnNotificationClick_NoWindowsOpensOne(t *testing.T) {
	agent, _, platform, m := newAgent(t)

	require.NoError(t, agent.OnNotificationClick(context.Background(), ClickEvent{Tag: "t1", Data: model.PushData{URL: "/confirm?token=abc"}}))
	assert.Equal(t, []string{"t1"}, platform.closed)
	assert.Equal(t, []string{"https://ops.example.com/confirm?token=abc"}, platform.opened)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushEvents.WithLabelValues("click", "opened")))
}

func TestOnNotificationClick_NavigatesFirstWindowOnly(t *testing.T) {
	w1, w2 := &fakeWindow{id: "w1"}, &fakeWindow{id: "w2"}
	agent, _, platform, _ := newAgent(t, w1, w2)

	require.NoError(t, agent.OnNotificationClick(context.Background(), ClickEvent{Tag: "t1", Data: model.PushData{URL: "/bookings"}}))
	assert.Equal(t, []string{"https://ops.example.com/bookings"}, w1.navigated)
	assert.Empty(t, w2.navigated)
	assert.Empty(t, platform.opened)
}

func TestOnNotificationClick_ClosedWindowFallsBackToOpen(t *testing.T) {
	closed := &fakeWindow{id: "gone", navigateErr: ErrWindowClosed}
	other := &fakeWindow{id: "other"}
	agent, _, platform, _ := newAgent(t, closed, other)

	require.NoError(t, agent.OnNotificationClick(context.Background(), ClickEvent{Data: model.PushData{URL: "/x"}}))
	assert.Equal(t, []string{"https://ops.example.com/x"}, platform.opened)
	assert.Empty(t, other.navigated)
}

func TestOnNotificationClick_RegistryErrorOpensWindow(t *testing.T) {
	agent, reg, platform, _ := newAgent(t)
	reg.err = errors.New("registry unavailable")

	require.NoError(t, agent.OnNotificationClick(context.Background(), ClickEvent{Data: model.PushData{URL: "/x"}}))
	assert.Len(t, platform.opened, 1)
}

func TestResolveTarget(t *testing.T) {
	agent, _, _, _ := newAgent(t)
	tests := map[string]string{
		"":                                  "https://ops.example.com/",
		"/confirm?token=a":                  "https://ops.example.com/confirm?token=a",
		"confirm":                           "https://ops.example.com/confirm",
		"https://ops.example.com/bookings":  "https://ops.example.com/bookings",
		"https://evil.example.net/phish":    "https://ops.example.com/",
		"//evil.example.net/phish":          "https://ops.example.com/",
		"http://ops.example.com/downgraded": "https://ops.example.com/",
		"javascript:alert(1)":               "https://ops.example.com/",
		"%zz":                               "https://ops.example.com/",
	}
	for raw, want := range tests {
		assert.Equal(t, want, agent.ResolveTarget(raw), raw)
	}
}

func TestRenderThenPushRoundTrip(t *testing.T) {
	engine := render.NewEngine(render.Options{Icon: "/icon.png"})
	intent := model.NotificationIntent{
		Kind:               model.KindBookingAvailabilityRequest,
		RecipientFirstName: "Vikram",
		Message:            "Backend loop on Friday",
		ActionLink:         "https://ops.example.com/confirm?token=xyz",
		TargetURL:          "/confirm?token=xyz",
	}
	msg, err := engine.Render(intent, model.ChannelPush)
	require.NoError(t, err)

	raw, err := json.Marshal(msg.Push)
	require.NoError(t, err)

	agent, _, platform, _ := newAgent(t)
	require.NoError(t, agent.OnPush(context.Background(), raw))
	require.Len(t, platform.shown, 1)
	assert.Equal(t, intent.TargetURL, platform.shown[0].Data.URL)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestDecode_RequiresObject(t *testing.T) {
	_, err := Decode([]byte("null"))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	payload, err := Decode([]byte(" \n" + payloadJSON))
	require.NoError(t, err)
	assert.NotEmpty(t, payload.Title)
}
