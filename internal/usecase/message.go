package usecase

import (
	"bytes"
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"
	"time"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
)

// Alert is the snapshot of an incident handed to the dispatcher.
type Alert struct {
	IncidentID string
	OwnerID    string
	OwnerName  string
	Location   *guardiansos.Location
	Battery    *int
	Network    string
	Time       time.Time
}

// MessageRecipient is who a message is rendered for. GuardianID is empty
// for emergency contacts.
type MessageRecipient struct {
	Name       string
	GuardianID string
}

// AlertMessage renders the notification of one alert kind.
type AlertMessage interface {
	Level() string
	Compose(r MessageRecipient) domain.Message
}

// NewAlertMessage picks the variant for level.
func NewAlertMessage(level domain.AlertLevel, alert Alert, dashboardURL string) AlertMessage {
	if level == domain.LevelWarning {
		return WarningAlert{Alert: alert}
	}
	return SOSAlert{Alert: alert, DashboardURL: dashboardURL}
}

// WarningAlert is the low urgency variant; it carries no device stats.
type WarningAlert struct {
	Alert Alert
}

// SOSAlert carries full details and a per-guardian tracking link.
type SOSAlert struct {
	Alert        Alert
	DashboardURL string
}

// SafeNotice tells recipients the alert was cancelled.
type SafeNotice struct {
	Alert Alert
}

type messageView struct {
	Name     string
	Time     string
	MapLink  string
	Battery  string
	Network  string
	Tracking string
}

func newMessageView(a Alert) messageView {
	v := messageView{
		Name:    a.OwnerName,
		Time:    a.Time.UTC().Format("2006-01-02 15:04:05 MST"),
		Battery: "Unknown",
		Network: "Unknown",
	}
	if v.Name == "" {
		v.Name = "A GuardianSOS user"
	}
	if a.Location != nil {
		v.MapLink = guardiansos.MapLink(*a.Location)
	}
	if a.Battery != nil {
		v.Battery = strconv.Itoa(*a.Battery) + "%"
	}
	if a.Network != "" {
		v.Network = a.Network
	}
	return v
}

var (
	warningSubject = texttemplate.Must(texttemplate.New("warningSubject").Parse(`Warning: {{.Name}} may need help`))
	warningText    = texttemplate.Must(texttemplate.New("warningText").Parse(`WARNING: {{.Name}} has raised a warning alert.
Time: {{.Time}}
Location: {{if .MapLink}}{{.MapLink}}{{else}}Unknown Location{{end}}
Please check in with them.`))
	warningHTML = htmltemplate.Must(htmltemplate.New("warningHTML").Parse(`<div style="background-color: #fef3c7; padding: 20px; border: 2px solid #f59e0b; border-radius: 8px; font-family: Arial, sans-serif;">
<h1 style="color: #b45309; margin-top: 0;">Warning</h1>
<p style="font-size: 18px;"><strong>{{.Name}}</strong> has raised a warning alert.</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Location:</strong> {{if .MapLink}}<a href="{{.MapLink}}">View on Google Maps</a>{{else}}Unknown Location{{end}}</p>
<p style="margin-top: 20px; color: #666;">This is an automated message from GuardianSOS.</p>
</div>`))

	sosSubject = texttemplate.Must(texttemplate.New("sosSubject").Parse(`SOS ALERT: {{.Name}} needs help!`))
	sosText    = texttemplate.Must(texttemplate.New("sosText").Parse(`URGENT SOS: {{.Name}} needs help!
Time: {{.Time}}
Location: {{if .MapLink}}{{.MapLink}}{{else}}Unknown Location{{end}}
Battery: {{.Battery}}
Network: {{.Network}}{{if .Tracking}}
Track Live: {{.Tracking}}{{end}}`))
	sosHTML = htmltemplate.Must(htmltemplate.New("sosHTML").Parse(`<div style="background-color: #fee2e2; padding: 20px; border: 2px solid #ef4444; border-radius: 8px; font-family: Arial, sans-serif;">
<h1 style="color: #ef4444; margin-top: 0;">SOS ALERT!</h1>
<p style="font-size: 18px;"><strong>{{.Name}}</strong> has triggered an emergency alert.</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Location:</strong> {{if .MapLink}}<a href="{{.MapLink}}">View on Google Maps</a>{{else}}Unknown Location{{end}}</p>
<p><strong>Battery:</strong> {{.Battery}}</p>
<p><strong>Network:</strong> {{.Network}}</p>
{{if .Tracking}}<div style="margin-top: 20px;">
<a href="{{.Tracking}}" style="background-color: #dc2626; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold; display: inline-block;">Track Live Dashboard</a>
</div>{{end}}
<p style="margin-top: 20px; color: #666;">This is an automated message from GuardianSOS.</p>
</div>`))

	safeSubject = texttemplate.Must(texttemplate.New("safeSubject").Parse(`{{.Name}} is safe now`))
	safeText    = texttemplate.Must(texttemplate.New("safeText").Parse(`{{.Name}} has cancelled the alert and is marked safe.
Time: {{.Time}}`))
	safeHTML = htmltemplate.Must(htmltemplate.New("safeHTML").Parse(`<div style="background-color: #dcfce7; padding: 20px; border: 2px solid #22c55e; border-radius: 8px; font-family: Arial, sans-serif;">
<h1 style="color: #15803d; margin-top: 0;">All clear</h1>
<p style="font-size: 18px;"><strong>{{.Name}}</strong> has cancelled the alert and is marked safe.</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p style="margin-top: 20px; color: #666;">This is an automated message from GuardianSOS.</p>
</div>`))
)

func renderText(t *texttemplate.Template, v messageView) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return ""
	}
	return buf.String()
}

func renderHTML(t *htmltemplate.Template, v messageView) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return ""
	}
	return buf.String()
}

func (m WarningAlert) Level() string { return string(domain.LevelWarning) }

func (m WarningAlert) Compose(r MessageRecipient) domain.Message {
	v := newMessageView(m.Alert)
	return domain.Message{
		Subject: renderText(warningSubject, v),
		Text:    renderText(warningText, v),
		HTML:    renderHTML(warningHTML, v),
	}
}

func (m SOSAlert) Level() string { return string(domain.LevelSOS) }

func (m SOSAlert) Compose(r MessageRecipient) domain.Message {
	v := newMessageView(m.Alert)
	if r.GuardianID != "" && m.DashboardURL != "" {
		v.Tracking = guardiansos.TrackingLink(m.DashboardURL, m.Alert.OwnerID, r.GuardianID)
	}
	return domain.Message{
		Subject: renderText(sosSubject, v),
		Text:    renderText(sosText, v),
		HTML:    renderHTML(sosHTML, v),
	}
}

func (m SafeNotice) Level() string { return string(domain.StatusSafe) }

func (m SafeNotice) Compose(r MessageRecipient) domain.Message {
	v := newMessageView(m.Alert)
	return domain.Message{
		Subject: renderText(safeSubject, v),
		Text:    renderText(safeText, v),
		HTML:    renderHTML(safeHTML, v),
	}
}
