package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pesantrenku_backend/internals/configs"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/home/notifications/model"
	"pesantrenku_backend/internals/logger"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
)

// WhatsAppChannel posts to an HTTP WhatsApp gateway.
type WhatsAppChannel struct {
	url    string
	token  string
	client *retryablehttp.Client
}

type waMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func NewWhatsAppChannel(cfg configs.NotifyConfig, log *logger.Logger) *WhatsAppChannel {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.HTTPClient.Timeout = 10 * time.Second
	c.Logger = log.Retryable()
	return &WhatsAppChannel{url: cfg.WhatsAppURL, token: cfg.WhatsAppToken, client: c}
}

func (w *WhatsAppChannel) Name() string { return "whatsapp" }

func (w *WhatsAppChannel) Enabled(n model.GuardianNotice) bool {
	return w.url != "" && NormalizePhone(n.GuardianPhone) != ""
}

func (w *WhatsAppChannel) Send(ctx context.Context, n model.GuardianNotice) error {
	body, err := sonic.Marshal(waMessage{Phone: NormalizePhone(n.GuardianPhone), Message: n.Body()})
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return ierr.WithError(err).WithHint("Gateway WhatsApp tidak bisa dihubungi").Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ierr.NewError(fmt.Sprintf("whatsapp gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

// NormalizePhone turns 08xx / +628xx into 628xx. Empty when unusable.
func NormalizePhone(p *string) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, r := range *p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	switch {
	case strings.HasPrefix(s, "0"):
		s = "62" + s[1:]
	case strings.HasPrefix(s, "8"):
		s = "62" + s
	}
	if len(s) < 9 {
		return ""
	}
	return s
}
