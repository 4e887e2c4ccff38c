package mailer

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltmpl "html/template"
	texttmpl "text/template"
)

// Template names.
const (
	TemplateVerifyEmail         = "verify_email"
	TemplateLoginOTP            = "login_otp"
	TemplatePasswordReset       = "password_reset"
	TemplateEnrollmentConfirmed = "enrollment_confirmed"
	TemplatePaymentReceipt      = "payment_receipt"
	TemplateCertificateIssued   = "certificate_issued"
)

var subjects = map[string]string{
	TemplateVerifyEmail:         "Verify your email address",
	TemplateLoginOTP:            "Your sign-in code",
	TemplatePasswordReset:       "Reset your password",
	TemplateEnrollmentConfirmed: "Enrollment confirmed",
	TemplatePaymentReceipt:      "Payment receipt",
	TemplateCertificateIssued:   "Your certificate is ready",
}

// ErrUnknownTemplate is returned when rendering a template that does not exist.
var ErrUnknownTemplate = errors.New("mailer: unknown template")

//go:embed templates/*.gohtml templates/*.txt
var templateFS embed.FS

type templateContext struct {
	AppName string
	BaseURL string
	Data    map[string]interface{}
}

// Renderer turns a template name and data into a Message body.
type Renderer struct {
	html    *htmltmpl.Template
	text    *texttmpl.Template
	appName string
	baseURL string
}

// NewRenderer parses the embedded templates.
func NewRenderer(appName, baseURL string) (*Renderer, error) {
	html, err := htmltmpl.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttmpl.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &Renderer{html: html, text: text, appName: appName, baseURL: baseURL}, nil
}

// Render produces the subject and both bodies for a template. The recipient is
// left empty.
func (r *Renderer) Render(name string, data map[string]interface{}) (Message, error) {
	subject, ok := subjects[name]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	tc := templateContext{AppName: r.appName, BaseURL: r.baseURL, Data: data}

	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, name+".gohtml", tc); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := r.text.ExecuteTemplate(&text, name+".txt", tc); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", name, err)
	}

	return Message{
		Subject: "[" + r.appName + "] " + subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
