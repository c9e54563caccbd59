// Package render builds the HTML pages. Every function is pure.
package render

import (
	"html/template"
	"strings"
	"time"

	"secretbox/models"

	"github.com/samber/lo"
)

const Title = "Secret Box"

// TimeLayout is how archive cards show created_at.
const TimeLayout = "Jan 2, 2006 3:04 PM MST"

var shell = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>{{.Title}}</title>
<link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css" rel="stylesheet"/>
<style>
  body { background: #f7f9fc; font-family: 'Segoe UI', sans-serif; }
  .container { max-width: 700px; margin-top: 40px; }
  .card { border-radius: 14px; box-shadow: 0 6px 18px rgba(0,0,0,0.06); }
  textarea { resize: none; }
  .msg { background: #fff; border-radius: 10px; padding: 12px; margin: 10px 0; box-shadow: 0 2px 6px rgba(0,0,0,0.04); }
  .meta { font-size: 0.85rem; color: #6c757d; }
  .small-note { font-size: 0.9rem; color: #6c757d; }
</style>
</head>
<body>
  <div class="container">
    {{.Content}}
  </div>
</body>
</html>`))

var fragments = template.Must(template.New("fragments").Parse(`
{{define "form"}}
    <div class="card p-4">
      <h2 class="text-center mb-2">🔒 Secret Message Box</h2>
      <p class="text-center small-note">Type your anonymous msg to me. I will never know who you are 😅</p>
      <form action="/send" method="POST">
        <div class="mb-3">
          <textarea class="form-control" name="message" rows="5" placeholder="Type your secret..." required></textarea>
        </div>
        <div class="d-grid">
          <button type="submit" class="btn btn-primary btn-lg">Send Secret</button>
        </div>
      </form>
    </div>
{{end}}
{{define "sent"}}
    <div class="card p-4 text-center">
      <h3 class="text-success">✅ Your secret has been sent anonymously!</h3>
      <p class="small-note">Sender assigned: <b>{{.}}</b></p>
      <a href="/" class="btn btn-primary mt-2">Send another</a>
    </div>
{{end}}
{{define "empty"}}
    <div class="card p-4 text-center">
      <h3 class="text-warning">⚠️ Empty message — nothing sent!</h3>
      <a href="/" class="btn btn-primary mt-3">Go Back</a>
    </div>
{{end}}
{{define "toolong"}}
    <div class="card p-4 text-center">
      <h3 class="text-warning">⚠️ Message too long — nothing sent!</h3>
      <p class="small-note">Keep it under {{.}} characters.</p>
      <a href="/" class="btn btn-primary mt-3">Go Back</a>
    </div>
{{end}}
{{define "archive"}}
    <div class="card p-4">
      <h2 class="mb-1 text-center">Archive of secret messages</h2>
      <div style="margin-top:12px;">
      {{- range .}}
        <div class="msg">
          <div class="meta">🕒 {{.When}}</div>
          <p style="margin:6px 0;">{{.Text}}</p>
        </div>
      {{- else}}
        <h4 class="text-muted text-center">No messages yet</h4>
      {{- end}}
      </div>
    </div>
{{end}}
{{define "status"}}
    <div class="card p-4 text-center">
      <h3 class="text-muted">{{.}}</h3>
      <a href="/" class="btn btn-primary mt-3">Go Back</a>
    </div>
{{end}}
`))

// Wrap embeds an HTML fragment in the page shell. The fragment is trusted.
func Wrap(fragment string) string {
	return execute(shell, "shell", struct {
		Title   string
		Content template.HTML
	}{Title, template.HTML(fragment)})
}

func Form() string { return execute(fragments, "form", nil) }

// Sent is the confirmation fragment. The pseudonym is escaped on output.
func Sent(sender string) string { return execute(fragments, "sent", sender) }

func Empty() string { return execute(fragments, "empty", nil) }

func TooLong(max int) string { return execute(fragments, "toolong", max) }

// NotFound and Failure share the shell so no error ever looks different from a normal page.
func NotFound() string { return execute(fragments, "status", "Nothing to see here") }

func Failure() string { return execute(fragments, "status", "Something went wrong, please try again") }

type card struct {
	When string
	Text template.HTML
}

// Archive renders one card per message in the given order. Message text is stored
// already escaped, so it is inserted verbatim.
func Archive(msgs []models.Message) string {
	cards := lo.Map(msgs, func(m models.Message, _ int) card {
		return card{When: FormatTime(m.CreatedAt), Text: template.HTML(m.Text)}
	})
	return execute(fragments, "archive", cards)
}

// FormatTime renders t in UTC for archive cards.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func execute(t *template.Template, name string, data interface{}) string {
	var b strings.Builder
	if err := t.ExecuteTemplate(&b, name, data); err != nil {
		// Templates are fixed at compile time; a failure here is a programming error.
		panic("render " + name + ": " + err.Error())
	}
	return b.String()
}
