package template

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"fieldnotify/internal/domain/notification"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var _ notification.EmailRenderer = (*Engine)(nil)

//go:embed templates/*.html
var templateFS embed.FS

const layoutName = "notification.html"

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	titleCaser   = cases.Title(language.English)
)

// Engine renders composed notification content into a transactional email
// using Go's html/template package.
type Engine struct {
	templates *template.Template
	baseURL   string
}

// NewEngine parses the embedded email layout. baseURL is prefixed to
// relative action URLs so links work outside the app.
func NewEngine(baseURL string) (*Engine, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing email templates: %w", err)
	}
	return &Engine{
		templates: tmpl,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}, nil
}

type layoutData struct {
	Title         string
	Message       string
	Name          string
	ActionURL     string
	EntityLabel   string
	Category      string
	Urgent        bool
	PriorityLabel string
}

// Render produces a subject line, HTML body, and plain-text fallback.
func (e *Engine) Render(recipient notification.Recipient, content notification.Content) (subject, html, text string, err error) {
	urgent := content.Priority == notification.PriorityUrgent || content.Priority == notification.PriorityHigh

	subject = content.Title
	if content.Priority == notification.PriorityUrgent {
		subject = "[Urgent] " + subject
	}

	name := recipient.FullName
	if name == "" {
		name = "there"
	}

	entity := "details"
	if content.RelatedEntityType != "" {
		entity = titleCaser.String(strings.ReplaceAll(content.RelatedEntityType, "_", " "))
	}

	data := layoutData{
		Title:         content.Title,
		Message:       content.Message,
		Name:          name,
		ActionURL:     e.absoluteURL(content.ActionURL),
		EntityLabel:   entity,
		Category:      content.Category,
		Urgent:        urgent,
		PriorityLabel: strings.ToUpper(string(content.Priority)),
	}

	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return "", "", "", fmt.Errorf("executing email template: %w", err)
	}
	html = buf.String()

	text = content.Message
	if data.ActionURL != "" {
		text += "\n\n" + data.ActionURL
	}
	if text == "" {
		text = stripHTML(html)
	}

	return subject, html, text, nil
}

func (e *Engine) absoluteURL(u string) string {
	if u == "" || e.baseURL == "" || !strings.HasPrefix(u, "/") {
		return u
	}
	return e.baseURL + u
}

// stripHTML removes HTML tags and collapses whitespace to produce a plain-text version.
func stripHTML(s string) string {
	text := tagRe.ReplaceAllString(s, "")

	text = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	).Replace(text)

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
