package moderation

import (
	"bytes"
	"text/template"

	"hook-screener/internal/models"
)

type messageData struct {
	Greeting    string
	Summary     string
	Text        string
	Example     string
	Positives   []string
	Suggestions []string
	Notes       []string
	Link        string
}

var messageTmpl = template.Must(template.New("message").Parse(`Hey {{.Greeting}}! 👋

{{.Summary}}
{{- if .Text}}

Your text: "{{.Text}}"
{{- end}}
{{- if .Example}}

Try something like: "{{.Example}}"
{{- end}}
{{- if .Suggestions}}

How to fix it:
{{- range .Suggestions}}
• {{.}}
{{- end}}
{{- end}}
{{- if .Positives}}

What you did well:
{{- range .Positives}}
• ✅ {{.}}
{{- end}}
{{- end}}
{{- if .Notes}}

Notes:
{{- range .Notes}}
• {{.}}
{{- end}}
{{- end}}
{{- if .Link}}

Video: {{.Link}}
{{- end}}
`))

func renderMessage(data messageData) string {
	var buf bytes.Buffer
	if err := messageTmpl.Execute(&buf, data); err != nil {
		// Only reachable with a broken template; keep the summary.
		return "Hey " + data.Greeting + "! 👋\n\n" + data.Summary + "\n"
	}
	return buf.String()
}

func greeting(ref models.VideoRef) string {
	if ref.Handle == "" {
		return "there"
	}
	return ref.Handle
}
