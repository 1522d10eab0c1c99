package render

import "github.com/jwalitptl/recruit-api/internal/model"

type source struct {
	pushTitle    string
	emailSubject string
	emailHTML    string
	emailText    string
	whatsapp     string
	needsMessage bool
	needsAction  bool
}

// emailLayoutHTML defines the shared wrapper. Each kind defines "content".
const emailLayoutHTML = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2933">
<p>Hi {{.RecipientFirstName}},</p>
{{template "content" .}}
{{if .ActionRequired}}<div style="border-left:4px solid #d97706;padding:8px 12px;margin:16px 0">
<strong>Action Required</strong><p>{{.ActionRequired}}</p></div>{{end}}
{{if .ActionLink}}<p><a href="{{.ActionLink}}" style="background:#2563eb;color:#fff;padding:10px 16px;text-decoration:none;border-radius:4px">Respond now</a></p>{{end}}
{{if .SupportContact}}<p style="font-size:12px;color:#52606d">Questions? Contact {{.SupportContact}}.</p>{{end}}
<p>Regards,<br>{{.AppName}}</p>
</body></html>`

// Text sections are shared through this suffix so optional blocks disappear uniformly.
const textFooter = `
{{if .ActionRequired}}
Action Required:
{{.ActionRequired}}
{{end}}{{if .ActionLink}}
Respond here: {{.ActionLink}}
{{end}}{{if .SupportContact}}
Questions? Contact {{.SupportContact}}.
{{end}}
Regards,
{{.AppName}}`

const whatsappFooter = `
{{if .ActionRequired}}
*Action Required*
{{.ActionRequired}}
{{end}}{{if .ActionLink}}
👉 {{.ActionLink}}
{{end}}{{if .SupportContact}}
Support: {{.SupportContact}}
{{end}}`

var sources = map[model.NotificationKind]source{
	model.KindWelcome: {
		pushTitle:    "Welcome to {{.AppName}}",
		emailSubject: "Welcome to {{.AppName}}",
		emailHTML:    `{{define "content"}}<p>Your interviewer account is ready.</p>{{if .Message}}<p>{{.Message}}</p>{{end}}{{end}}`,
		emailText: `Hi {{.RecipientFirstName}},

Your interviewer account is ready.
{{if .Message}}{{.Message}}
{{end}}` + textFooter,
		whatsapp: `Hi *{{.RecipientFirstName}}*, welcome to {{.AppName}}!
{{if .Message}}{{.Message}}
{{end}}` + whatsappFooter,
	},
	model.KindGenericNotice: {
		pushTitle:    "New notification",
		emailSubject: "A new update from {{.AppName}}",
		emailHTML:    `{{define "content"}}<p>{{.Message}}</p>{{end}}`,
		emailText: `Hi {{.RecipientFirstName}},

{{.Message}}
` + textFooter,
		whatsapp: `Hi *{{.RecipientFirstName}}*,

{{.Message}}
` + whatsappFooter,
		needsMessage: true,
	},
	model.KindPaymentConfirmationRequest: {
		pushTitle:    "Payment confirmation needed",
		emailSubject: "Please confirm your monthly interview payment",
		emailHTML:    `{{define "content"}}<p>{{.Message}}</p><p>Please confirm the amount or raise a dispute using the link below.</p>{{end}}`,
		emailText: `Hi {{.RecipientFirstName}},

{{.Message}}
Please confirm the amount or raise a dispute using the link below.
` + textFooter,
		whatsapp: `Hi *{{.RecipientFirstName}}*,

*Payment confirmation*
{{.Message}}
` + whatsappFooter,
		needsMessage: true,
		needsAction:  true,
	},
	model.KindBookingAvailabilityRequest: {
		pushTitle:    "Interview slot needs coverage",
		emailSubject: "Are you available for an interview slot?",
		emailHTML:    `{{define "content"}}<p>{{.Message}}</p><p>Let us know whether you can take this slot.</p>{{end}}`,
		emailText: `Hi {{.RecipientFirstName}},

{{.Message}}
Let us know whether you can take this slot.
` + textFooter,
		whatsapp: `Hi *{{.RecipientFirstName}}*,

*Interview slot available*
{{.Message}}
` + whatsappFooter,
		needsMessage: true,
		needsAction:  true,
	},
}
