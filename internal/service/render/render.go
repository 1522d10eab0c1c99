// Package render turns a NotificationIntent into channel payloads. Rendering is pure:
// the same intent and channel always produce the same output.
package render

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/jwalitptl/recruit-api/internal/model"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrUnknownKind        = errors.New("unknown notification kind")
	ErrUnsupportedChannel = errors.New("unsupported channel")
)

type Options struct {
	AppName string
	Icon    string
	Badge   string
}

type Engine struct {
	opts  Options
	kinds map[model.NotificationKind]*kindTemplates
}

type kindTemplates struct {
	pushTitle    string
	emailSubject string
	email        *htmltemplate.Template
	text         *texttemplate.Template
	whatsapp     *texttemplate.Template
	needsMessage bool
	needsAction  bool
}

// templateData is what every template sees.
type templateData struct {
	model.NotificationIntent
	AppName string
}

func NewEngine(opts Options) *Engine {
	if opts.AppName == "" {
		opts.AppName = "Recruit Ops"
	}
	e := &Engine{opts: opts, kinds: make(map[model.NotificationKind]*kindTemplates)}
	for kind, src := range sources {
		e.kinds[kind] = &kindTemplates{
			pushTitle:    brand(src.pushTitle, opts.AppName),
			emailSubject: brand(src.emailSubject, opts.AppName),
			email:        htmltemplate.Must(htmltemplate.New(string(kind) + ".html").Parse(emailLayoutHTML + src.emailHTML)),
			text:         texttemplate.Must(texttemplate.New(string(kind) + ".txt").Parse(src.emailText)),
			whatsapp:     texttemplate.Must(texttemplate.New(string(kind) + ".wa").Parse(src.whatsapp)),
			needsMessage: src.needsMessage,
			needsAction:  src.needsAction,
		}
	}
	return e
}

// brand fills {{.AppName}} in a fixed title or subject once, at construction.
func brand(src, appName string) string {
	var buf bytes.Buffer
	texttemplate.Must(texttemplate.New("brand").Parse(src)).Execute(&buf, struct{ AppName string }{appName})
	return buf.String()
}

func (e *Engine) Render(intent model.NotificationIntent, channel model.Channel) (*model.RenderedMessage, error) {
	tpl, ok := e.kinds[intent.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, intent.Kind)
	}
	if err := validate(intent, tpl, channel); err != nil {
		return nil, err
	}

	data := templateData{NotificationIntent: intent, AppName: e.opts.AppName}

	switch channel {
	case model.ChannelPush:
		return &model.RenderedMessage{
			Channel: channel,
			Push: &model.PushPayload{
				Title: tpl.pushTitle,
				Body:  pushBody(intent),
				Icon:  e.opts.Icon,
				Badge: e.opts.Badge,
				Data:  model.PushData{URL: intent.TargetURL},
			},
		}, nil

	case model.ChannelEmail:
		html, err := execHTML(tpl.email, data)
		if err != nil {
			return nil, err
		}
		text, err := execText(tpl.text, data)
		if err != nil {
			return nil, err
		}
		return &model.RenderedMessage{
			Channel: channel,
			Email: &model.EmailContent{
				Subject: tpl.emailSubject,
				HTML:    html,
				Text:    text,
			},
		}, nil

	case model.ChannelWhatsApp:
		text, err := execText(tpl.whatsapp, data)
		if err != nil {
			return nil, err
		}
		return &model.RenderedMessage{Channel: channel, WhatsApp: text}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedChannel, channel)
}

func validate(intent model.NotificationIntent, tpl *kindTemplates, channel model.Channel) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required for %s", ErrMissingField, field, intent.Kind)
	}
	if strings.TrimSpace(intent.RecipientFirstName) == "" {
		return missing("recipient_first_name")
	}
	if tpl.needsMessage && strings.TrimSpace(intent.Message) == "" {
		return missing("message")
	}
	if tpl.needsAction && strings.TrimSpace(intent.ActionLink) == "" {
		return missing("action_link")
	}
	if channel == model.ChannelPush && strings.TrimSpace(intent.TargetURL) == "" {
		return missing("target_url")
	}
	return nil
}

func pushBody(intent model.NotificationIntent) string {
	if intent.Message != "" {
		return intent.Message
	}
	return fmt.Sprintf("Welcome aboard, %s!", intent.RecipientFirstName)
}

func execHTML(t *htmltemplate.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func execText(t *texttemplate.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
