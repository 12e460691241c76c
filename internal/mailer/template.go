package mailer

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "Quick Collaboration Inquiry"

// DefaultBody is the fallback outreach template. Placeholders are optional;
// a literal body works unchanged.
const DefaultBody = `Hi,

I came across {{.Company}} and was impressed by your work. I'm reaching out
to see whether there's an opportunity to collaborate or contribute on a
project basis.

I'd be happy to share more details if this sounds interesting.

Thanks!`

// Template renders per-target subject and body text. Supported fields:
// {{.Company}}, {{.URL}}, {{.Email}}.
type Template struct {
	subject *template.Template
	body    *template.Template
}

// NewTemplate parses the subject and body templates, substituting defaults
// for empty inputs.
func NewTemplate(subject, body string) (*Template, error) {
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}
	if strings.TrimSpace(body) == "" {
		body = DefaultBody
	}
	st, err := template.New("subject").Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	bt, err := template.New("body").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}
	return &Template{subject: st, body: bt}, nil
}

// Compose implements pipeline.Composer.
func (t *Template) Compose(data pipeline.MessageData) (pipeline.Message, error) {
	var subject, body strings.Builder
	if err := t.subject.Execute(&subject, data); err != nil {
		return pipeline.Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return pipeline.Message{}, fmt.Errorf("render body: %w", err)
	}
	return pipeline.Message{Subject: subject.String(), Body: body.String()}, nil
}
