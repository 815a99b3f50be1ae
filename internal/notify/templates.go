package notify

import (
	"strings"
	"text/template"
)

// Templates use text/template so that escaping stays explicit: every
// interpolated value is piped through esc.
var templates = template.Must(template.New("notify").Funcs(template.FuncMap{
	"esc": escapeHTML,
}).Parse(`
{{define "row"}}
        <tr>
          <td style="padding: 8px 0; font-weight: bold; color: #333;">{{esc .Label}}:</td>
          <td style="padding: 8px 0; color: #555;">{{esc .Value}}</td>
        </tr>{{end}}

{{define "contact"}}
      <h2 style="color: #0047AB;">New Contact Form Submission</h2>
      <table style="width: 100%; border-collapse: collapse;">{{range .Rows}}{{template "row" .}}{{end}}
      </table>
      <h3 style="color: #0047AB; margin-top: 20px;">Message</h3>
      <p style="color: #555; line-height: 1.6;">{{esc .Message}}</p>{{end}}

{{define "quote"}}
      <h2 style="color: #0047AB;">New Quote Request</h2>
      <h3 style="color: #333;">Contact Information</h3>
      <table style="width: 100%; border-collapse: collapse;">{{range .Contact}}{{template "row" .}}{{end}}
      </table>
      <h3 style="color: #333; margin-top: 20px;">Project Details</h3>
      <table style="width: 100%; border-collapse: collapse;">{{range .Project}}{{template "row" .}}{{end}}
      </table>
      <h3 style="color: #0047AB; margin-top: 20px;">Description</h3>
      <p style="color: #555; line-height: 1.6;">{{esc .Description}}</p>{{if .Files}}
      <h3 style="color: #0047AB; margin-top: 20px;">Attachments</h3>
      <ul style="color: #555;">{{range .Files}}
        {{if .URL}}<li><a href="{{esc .URL}}" style="color: #0047AB;">{{esc .Name}}</a></li>{{else}}<li>{{esc .Name}}</li>{{end}}{{end}}
      </ul>{{end}}{{end}}

{{define "operator"}}
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">{{.Body}}{{if .Reference}}
      <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;" />
      <p style="color: #999; font-size: 12px;">Reference: {{esc .Reference}}</p>{{end}}
    </div>
{{end}}

{{define "acknowledgment"}}
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
      <h2 style="color: #0047AB;">Thank You, {{esc .Name}}!</h2>
      <p style="color: #555; line-height: 1.6;">
        We have received your inquiry and our team will review it promptly.
        You can expect to hear back from us within 1-2 business days.
      </p>{{if or .Site.Phone .Site.Email}}
      <p style="color: #555; line-height: 1.6;">
        If you need immediate assistance, feel free to contact us directly:
      </p>
      <ul style="color: #555;">{{if .Site.Phone}}
        <li>Phone: {{esc .Site.Phone}}</li>{{end}}{{if .Site.Email}}
        <li>Email: {{esc .Site.Email}}</li>{{end}}
      </ul>{{end}}
      <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;" />
      <p style="color: #999; font-size: 12px;">
        {{esc .Site.Name}}<br />
        Professional Construction Solutions
      </p>
    </div>
{{end}}
`))

type row struct {
	Label string
	Value string
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
