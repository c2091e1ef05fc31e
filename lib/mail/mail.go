// Package mail builds and sends notification emails.
package mail

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/pkg/errors"
)

// Message is a plain text email. It is encoded as multipart/related
// containing a multipart/alternative with a single text/plain part.
type Message struct {
	From     string
	To       string
	Subject  string
	Preamble string
	Body     string
	Date     time.Time
}

func (m *Message) Bytes() ([]byte, error) {
	// innermost: the text
	var alt bytes.Buffer
	alternative := multipart.NewWriter(&alt)
	text, err := alternative.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(text)
	if _, err := qp.Write([]byte(m.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	if err := alternative.Close(); err != nil {
		return nil, err
	}

	var rel bytes.Buffer
	related := multipart.NewWriter(&rel)
	part, err := related.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/alternative; boundary=" + alternative.Boundary()},
	})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(alt.Bytes()); err != nil {
		return nil, err
	}
	if err := related.Close(); err != nil {
		return nil, err
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", m.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", date.Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/related; boundary=%s\r\n", related.Boundary())
	msg.WriteString("\r\n")
	if m.Preamble != "" {
		msg.WriteString(m.Preamble)
		msg.WriteString("\r\n")
	}
	msg.Write(rel.Bytes())
	return msg.Bytes(), nil
}

// Sender delivers a message. Send is synchronous and not retried.
type Sender interface {
	Send(m *Message) error
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends via an SMTP relay, upgrading to TLS with STARTTLS when the
// server offers it.
type SMTPSender struct {
	Server   string
	Username string
	Password string
	sendMail sendMailFunc
}

func NewSMTPSender(server, username, password string) *SMTPSender {
	return &SMTPSender{
		Server:   server,
		Username: username,
		Password: password,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(m *Message) error {
	host, _, err := net.SplitHostPort(s.Server)
	if err != nil {
		return errors.Wrap(err, "invalid smtp server")
	}
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	data, err := m.Bytes()
	if err != nil {
		return errors.Wrap(err, "encoding message")
	}
	err = s.sendMail(s.Server, auth, m.From, []string{m.To}, data)
	return errors.Wrapf(err, "sending mail via %s", s.Server)
}
