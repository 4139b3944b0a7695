package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"dumpster-quote/internal/storage"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

type emailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

var leadHTML = template.Must(template.New("lead").Parse(
	`<p>{{range .}}{{.}}<br>{{end}}</p>`))

// Email sends each lead to the office inbox through Resend.
type Email struct {
	emails    emailSender
	fromEmail string
	fromName  string
	to        []string
	logger    *zap.Logger
}

func NewEmail(apiKey, fromEmail, fromName string, to []string, logger *zap.Logger) *Email {
	client := resend.NewClient(apiKey)
	return newEmail(client.Emails, fromEmail, fromName, to, logger)
}

func newEmail(emails emailSender, fromEmail, fromName string, to []string, logger *zap.Logger) *Email {
	return &Email{
		emails:    emails,
		fromEmail: fromEmail,
		fromName:  fromName,
		to:        to,
		logger:    logger,
	}
}

func (e *Email) NotifyLead(ctx context.Context, lead storage.Lead) {
	if err := ctx.Err(); err != nil {
		e.logger.Warn("Skipping lead email", zap.Error(err))
		return
	}

	text := FormatLead(lead)

	var html bytes.Buffer
	if err := leadHTML.Execute(&html, strings.Split(text, "\n")); err != nil {
		e.logger.Error("Failed to render lead email", zap.Error(err))
		return
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail),
		To:      e.to,
		Subject: leadSubject(lead),
		Html:    html.String(),
		Text:    text,
		Tags: []resend.Tag{
			{Name: "category", Value: "lead"},
			{Name: "channel", Value: lead.Channel},
		},
	}
	if lead.ContactKind == "email" {
		params.ReplyTo = lead.Contact
	}

	sent, err := e.emails.Send(params)
	if err != nil {
		e.logger.Error("Failed to send lead email",
			zap.Error(err),
			zap.Strings("to", e.to),
			zap.String("session_id", lead.SessionID))
		return
	}

	e.logger.Info("Lead email sent",
		zap.String("email_id", sent.Id),
		zap.String("session_id", lead.SessionID))
}
