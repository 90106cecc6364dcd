package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Template names. Each has a .txt.tmpl and an .html.tmpl file under templates/.
const (
	TemplateDealershipWelcome = "dealership_welcome"
	TemplateDealershipStatus  = "dealership_status"
	TemplateUserWelcome       = "user_welcome"
	TemplateAdminPending      = "admin_pending"
	TemplatePendingDigest     = "pending_digest"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates renders the email bodies.
type Templates struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}

	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}

	return &Templates{text: text, html: html}, nil
}

// Render executes both variants of the named template.
func (t *Templates) Render(name string, data any) (text string, html string, err error) {
	var textBuf, htmlBuf bytes.Buffer

	if err := t.text.ExecuteTemplate(&textBuf, name+".txt.tmpl", data); err != nil {
		return "", "", fmt.Errorf("failed to render %s text: %w", name, err)
	}

	if err := t.html.ExecuteTemplate(&htmlBuf, name+".html.tmpl", data); err != nil {
		return "", "", fmt.Errorf("failed to render %s html: %w", name, err)
	}

	return textBuf.String(), htmlBuf.String(), nil
}

// Compose renders the named template into a message for the given recipients.
func (t *Templates) Compose(name string, subject string, data any, to ...string) (Message, error) {
	text, html, err := t.Render(name, data)
	if err != nil {
		return Message{}, err
	}

	return Message{To: to, Subject: subject, Text: text, HTML: html}, nil
}
