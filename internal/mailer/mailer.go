package mailer

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/go-mail/mail/v2"
)

// Store the contents of the "templates" directory into the templateFS variable.

//go:embed "templates"
var templateFS embed.FS

type Mailer struct {
	// Used to connect to an SMTP server.
	dialer *mail.Dialer

	// Holds the name and address of the sender (e.g. "Movies DB <no-reply@moviesdb.example>").
	sender string
}

func New(host string, port int, username, password, sender string) Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second // Read/write operations should take at most 5 seconds.

	return Mailer{
		dialer: dialer,
		sender: sender,
	}
}

// rendered holds the three parts every template must define.
type rendered struct {
	subject   string
	plainBody string
	htmlBody  string
}

// render executes the subject, plainBody and htmlBody templates of templateFile.
func render(templateFile string, data any) (*rendered, error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return nil, err
	}

	subject := new(bytes.Buffer)
	if err = tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return nil, err
	}
	plainBody := new(bytes.Buffer)
	if err = tmpl.ExecuteTemplate(plainBody, "plainBody", data); err != nil {
		return nil, err
	}
	htmlBody := new(bytes.Buffer)
	if err = tmpl.ExecuteTemplate(htmlBody, "htmlBody", data); err != nil {
		return nil, err
	}

	return &rendered{
		subject:   subject.String(),
		plainBody: plainBody.String(),
		htmlBody:  htmlBody.String(),
	}, nil
}

// message builds the outgoing message without sending it.
func (m Mailer) message(recipient, templateFile string, data any) (*mail.Message, error) {
	r, err := render(templateFile, data)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", r.subject)
	msg.SetBody("text/plain", r.plainBody)
	msg.AddAlternative("text/html", r.htmlBody) // Always call AddAlternative() AFTER SetBody().
	return msg, nil
}

// Send renders a template and emails it to the given recipient.
func (m Mailer) Send(recipient, templateFile string, data any) error {
	msg, err := m.message(recipient, templateFile, data)
	if err != nil {
		return err
	}
	return m.dialer.DialAndSend(msg)
}
