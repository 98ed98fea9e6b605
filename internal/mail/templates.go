package mail

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/forgo/gather/internal/model"
)

// Renderer turns Content into a Message with links pointing at baseURL
type Renderer struct {
	siteName  string
	baseURL   string
	templates *template.Template
	text      *bluemonday.Policy
}

// NewRenderer parses the email templates
func NewRenderer(siteName, baseURL string) (*Renderer, error) {
	tmpl, err := template.New("mail").Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{
		siteName:  siteName,
		baseURL:   strings.TrimRight(baseURL, "/"),
		templates: tmpl,
		text:      bluemonday.StrictPolicy(),
	}, nil
}

type layoutData struct {
	SiteName   string
	Heading    string
	Paragraphs []string
	ButtonText string
	ButtonLink string
	Footer     string
}

// Render builds the message for to
func (r *Renderer) Render(to model.EmailAddress, c Content) (Message, error) {
	var (
		subject string
		data    layoutData
	)
	data.SiteName = r.siteName

	switch c := c.(type) {
	case LoginLink:
		q := url.Values{"token": {c.Token}}
		if c.JoinEventID != nil {
			q.Set("group", string(c.JoinGroupID))
			q.Set("event", strconv.Itoa(int(*c.JoinEventID)))
		}
		subject = fmt.Sprintf("Your %s login link", r.siteName)
		data.Heading = "Log in"
		data.Paragraphs = []string{"Click the button below to log in."}
		data.ButtonText = "Log in"
		data.ButtonLink = r.baseURL + "/login?" + q.Encode()
		data.Footer = fmt.Sprintf("This link expires in %s. If you did not request it, you can ignore this email.", humanDuration(c.ExpiresIn))

	case DeleteConfirmation:
		subject = fmt.Sprintf("Confirm deleting your %s account", r.siteName)
		data.Heading = "Delete account"
		data.Paragraphs = []string{
			fmt.Sprintf("Hi %s, someone asked to delete your account.", c.UserName),
			"Your groups will be removed and you will leave every upcoming event.",
		}
		data.ButtonText = "Delete my account"
		data.ButtonLink = r.baseURL + "/delete-account?" + url.Values{"token": {c.Token}}.Encode()
		data.Footer = fmt.Sprintf("This link expires in %s. If you did not request it, you can ignore this email.", humanDuration(c.ExpiresIn))

	case EventReminder:
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			loc = time.UTC
		}
		start := c.StartTime.In(loc)
		subject = fmt.Sprintf("Reminder: %s starts %s", c.EventName, start.Format("Mon Jan 2 15:04 MST"))
		data.Heading = c.EventName
		data.Paragraphs = []string{
			fmt.Sprintf("%s in %s starts on %s and lasts %s.", c.EventName, c.GroupName, start.Format("Monday, January 2 at 15:04 MST"), humanDuration(c.Duration)),
		}
		if c.Address != "" {
			data.Paragraphs = append(data.Paragraphs, "Address: "+c.Address)
		}
		data.ButtonText = "View event"
		data.ButtonLink = fmt.Sprintf("%s/group/%s#event-%d", r.baseURL, url.PathEscape(string(c.GroupID)), c.EventID)
		if c.MeetingLink != "" {
			data.ButtonText = "Join meeting"
			data.ButtonLink = c.MeetingLink
		}
		data.Footer = "You get this email because you are attending. Turn reminders off in your profile."

	default:
		return Message{}, fmt.Errorf("unsupported mail content %T", c)
	}

	var buf bytes.Buffer
	if err := r.templates.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s email: %w", c.Kind(), err)
	}

	return Message{
		To:       to,
		Subject:  subject,
		HTMLBody: buf.String(),
		TextBody: r.plainText(data),
	}, nil
}

// plainText builds the text/plain alternative, stripping any markup
func (r *Renderer) plainText(data layoutData) string {
	var b strings.Builder
	b.WriteString(data.Heading + "\n\n")
	for _, p := range data.Paragraphs {
		b.WriteString(p + "\n\n")
	}
	b.WriteString(data.ButtonText + ": " + data.ButtonLink + "\n\n")
	b.WriteString(data.Footer + "\n")
	return html.UnescapeString(r.text.Sanitize(b.String()))
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a while"
	case d%time.Hour == 0 && d >= time.Hour:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	default:
		m := int(d.Round(time.Minute) / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
}

const layoutTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 16px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <p style="margin: 0 0 8px; font-size: 14px; color: #6b7280;">{{.SiteName}}</p>
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #111827;">{{.Heading}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              {{range .Paragraphs}}<p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">{{.}}</p>
              {{end}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.ButtonLink}}" style="display: inline-block; padding: 14px 32px; background-color: #0f766e; color: #ffffff; text-decoration: none; font-size: 16px; border-radius: 6px;">{{.ButtonText}}</a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">{{.Footer}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
