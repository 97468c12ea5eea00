package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed pages/*.md
var pageFiles embed.FS

// mdRenderer escapes raw HTML found in the markdown.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var pageLayout = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
{{if .Back}}<p><a href="/dashboard">Back</a></p>{{end}}
<main>{{.Body}}</main>
{{if .Login}}<form id="login">
<input type="password" name="password" autocomplete="current-password" required>
<button type="submit">Sign in</button>
<p id="login-error" role="alert"></p>
</form>
<script>
document.getElementById("login").addEventListener("submit", async (e) => {
  e.preventDefault();
  const res = await fetch("/api/login", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({password: e.target.password.value}),
  });
  if (res.ok) { window.location = "/dashboard"; return; }
  const body = await res.json();
  document.getElementById("login-error").textContent = body.error;
});
</script>{{end}}
</body>
</html>
`))

type page struct {
	Title string
	File  string
	Login bool
	Back  bool
}

type pageData struct {
	page
	Body template.HTML
}

var (
	indexPage       = page{Title: "In-Practice Statistics", File: "pages/index.md", Login: true}
	dashboardPage   = page{Title: "Dashboard", File: "pages/dashboard.md"}
	managerDocsPage = page{Title: "Manager Docs", File: "pages/manager-docs.md", Back: true}
)

func renderPage(p page) ([]byte, error) {
	md, err := pageFiles.ReadFile(p.File)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := mdRenderer.Convert(md, &body); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := pageLayout.Execute(&out, pageData{page: p, Body: template.HTML(body.String())}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func servePage(p page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html, err := renderPage(p)
		if err != nil {
			log.WithError(err).Errorf("Failed to render %s", p.File)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(html)
	}
}
