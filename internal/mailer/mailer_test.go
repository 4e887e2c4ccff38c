package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_AllTemplates(t *testing.T) {
	r, err := NewRenderer("LearnHub", "https://learnhub.test")
	require.NoError(t, err)

	data := map[string]interface{}{
		"Name":              "Ada <script>",
		"Code":              "123456",
		"ExpiresMinutes":    10,
		"CourseTitle":       "Go Basics",
		"CourseID":          "c-1",
		"Amount":            "49.00",
		"Currency":          "USD",
		"PaymentID":         "p-1",
		"Provider":          "STRIPE",
		"CertificateNumber": "LH-20260101-ABCDEF12",
	}

	for name := range subjects {
		t.Run(name, func(t *testing.T) {
			msg, err := r.Render(name, data)
			require.NoError(t, err)
			assert.Contains(t, msg.Subject, "[LearnHub] ")
			assert.NotEmpty(t, msg.HTML)
			assert.NotEmpty(t, msg.Text)
			assert.Contains(t, msg.Text, "https://learnhub.test")
			assert.NotContains(t, msg.HTML, "<script>")
		})
	}
}

func TestRenderer_OTPContainsCode(t *testing.T) {
	r, err := NewRenderer("LearnHub", "http://localhost")
	require.NoError(t, err)

	msg, err := r.Render(TemplateLoginOTP, map[string]interface{}{"Name": "Ada", "Code": "654321", "ExpiresMinutes": 5})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "654321")
	assert.Contains(t, msg.Text, "654321")
	assert.Contains(t, msg.Text, "5 minutes")
}

func TestRenderer_Errors(t *testing.T) {
	r, err := NewRenderer("LearnHub", "http://localhost")
	require.NoError(t, err)

	_, err = r.Render("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	_, err = r.Render(TemplateVerifyEmail, map[string]interface{}{"Name": "Ada"})
	assert.Error(t, err, "missing keys must fail rendering")
}

func TestConsoleMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewConsoleMailer(zerolog.New(&buf))

	require.NoError(t, m.Send(context.Background(), Message{To: "a@b.c", Subject: "hello", Text: "body"}))
	assert.Contains(t, buf.String(), `"to":"a@b.c"`)
	assert.Contains(t, buf.String(), `"subject":"hello"`)

	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNoRecipient)
}

func TestNew_SelectsDriver(t *testing.T) {
	log := zerolog.Nop()

	m, err := New(&config.Config{MailDriver: "console"}, log)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleMailer{}, m)

	m, err = New(&config.Config{MailDriver: "SMTP", SMTPHost: "localhost", SMTPPort: 25}, log)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	m, err = New(&config.Config{MailDriver: "sendgrid", SendGridAPIKey: "SG.key"}, log)
	require.NoError(t, err)
	assert.IsType(t, &SendGridMailer{}, m)

	_, err = New(&config.Config{MailDriver: "sendgrid"}, log)
	assert.Error(t, err)

	_, err = New(&config.Config{MailDriver: "pigeon"}, log)
	assert.Error(t, err)
}

func TestSMTPMailer_Build(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "", "no-reply@learnhub.test", "LearnHub")
	mm := m.build(Message{To: "a@b.c", ToName: "Ada", Subject: "Hi", Text: "plain", HTML: "<p>html</p>"})

	assert.Equal(t, []string{"Hi"}, mm.GetHeader("Subject"))
	assert.Len(t, mm.GetHeader("To"), 1)
	assert.Contains(t, mm.GetHeader("From")[0], "no-reply@learnhub.test")

	assert.Equal(t, ErrNoRecipient, m.Send(context.Background(), Message{}))
}

func TestSendGridMailer_Build(t *testing.T) {
	m := NewSendGridMailer("SG.key", "no-reply@learnhub.test", "LearnHub")
	v3 := m.build(Message{To: "a@b.c", Subject: "Hi", Text: "plain", HTML: "<p>html</p>"})

	require.Len(t, v3.Personalizations, 1)
	assert.Equal(t, "Hi", v3.Personalizations[0].Subject)
	assert.Equal(t, "a@b.c", v3.Personalizations[0].To[0].Address)
	assert.Len(t, v3.Content, 2)
	assert.Equal(t, "no-reply@learnhub.test", v3.From.Address)
}
