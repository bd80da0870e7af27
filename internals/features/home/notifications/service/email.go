package service

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"pesantrenku_backend/internals/configs"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/home/notifications/model"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// EmailChannel sends through the SendGrid v3 API.
type EmailChannel struct {
	key  string
	from *sgmail.Email
}

func NewEmailChannel(cfg configs.NotifyConfig) *EmailChannel {
	return &EmailChannel{
		key:  cfg.SendGridKey,
		from: sgmail.NewEmail(cfg.SenderName, cfg.SenderEmail),
	}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) Enabled(n model.GuardianNotice) bool {
	return e.key != "" && n.GuardianEmail != nil && strings.Contains(*n.GuardianEmail, "@")
}

func (e *EmailChannel) prepare(n model.GuardianNotice) *sgmail.SGMailV3 {
	name := ""
	if n.GuardianName != nil {
		name = *n.GuardianName
	}
	p := sgmail.NewPersonalization()
	p.Subject = "[" + e.from.Name + "] " + n.Title() + " - " + n.InvoiceTitle
	p.AddTos(sgmail.NewEmail(name, strings.TrimSpace(*n.GuardianEmail)))

	m := sgmail.NewV3Mail()
	m.SetFrom(e.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", n.Body()),
		sgmail.NewContent("text/html", "<p>"+html.EscapeString(n.Body())+"</p>"),
	)
	return m
}

func (e *EmailChannel) Send(ctx context.Context, n model.GuardianNotice) error {
	req := sendgrid.GetRequest(e.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(e.prepare(n))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return ierr.WithError(err).WithHint("Gagal mengirim email").Mark(ierr.ErrHTTPClient)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return ierr.NewError(fmt.Sprintf("sendgrid status %d", res.StatusCode)).Mark(ierr.ErrHTTPClient)
	}
	return nil
}
