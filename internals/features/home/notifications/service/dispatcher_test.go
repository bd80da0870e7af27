package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"pesantrenku_backend/internals/configs"
	"pesantrenku_backend/internals/features/home/notifications/model"
	"pesantrenku_backend/internals/features/home/notifications/repository"
	"pesantrenku_backend/internals/logger"
	"pesantrenku_backend/internals/testutil"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChannel struct {
	name    string
	enabled bool
	err     error
	panics  bool

	mu   sync.Mutex
	sent []model.GuardianNotice
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Enabled(model.GuardianNotice) bool { return c.enabled }

func (c *stubChannel) Send(_ context.Context, n model.GuardianNotice) error {
	if c.panics {
		panic("boom")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return c.err
}

func (c *stubChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func strp(s string) *string { return &s }

func sampleNotice() model.GuardianNotice {
	return model.GuardianNotice{
		Kind:            model.NoticePaymentRejected,
		SchoolID:        uuid.New(),
		StudentID:       uuid.New(),
		PaymentStatusID: "inv_stu",
		StudentName:     "Ahmad",
		GuardianName:    strp("Bu Aminah"),
		GuardianPhone:   strp("0812-3456-7890"),
		GuardianEmail:   strp("aminah@example.com"),
		InvoiceTitle:    "SPP Juli",
		Amount:          decimal.NewFromInt(100000),
		Reason:          "Gambar kurang jelas",
	}
}

func TestDispatcherFansOut(t *testing.T) {
	ok := &stubChannel{name: "ok", enabled: true}
	failing := &stubChannel{name: "failing", enabled: true, err: errors.New("down")}
	off := &stubChannel{name: "off", enabled: false}
	broken := &stubChannel{name: "broken", enabled: true, panics: true}

	d := NewDispatcher(logger.NewNop(), ok, failing, off, broken)
	d.Notify(context.Background(), sampleNotice())
	d.Notify(context.Background(), sampleNotice())
	d.Wait()

	assert.Equal(t, 2, ok.count())
	assert.Equal(t, 2, failing.count())
	assert.Zero(t, off.count())
}

func TestDispatcherOutlivesRequestContext(t *testing.T) {
	ch := &stubChannel{name: "ok", enabled: true}
	d := NewDispatcher(logger.NewNop(), ch)

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(ctx, sampleNotice())
	cancel()
	d.Wait()

	assert.Equal(t, 1, ch.count())
}

func TestDispatcherWithoutChannels(t *testing.T) {
	d := NewDispatcher(logger.NewNop())
	d.Notify(context.Background(), sampleNotice())
	d.Wait()
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   *string
		want string
	}{
		{nil, ""},
		{strp(""), ""},
		{strp("0812-3456-7890"), "6281234567890"},
		{strp("+62 812 3456 7890"), "6281234567890"},
		{strp("81234567890"), "6281234567890"},
		{strp("12345"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in))
	}
}

func TestNoticeBody(t *testing.T) {
	n := sampleNotice()
	assert.Equal(t, "Pembayaran ditolak", n.Title())
	assert.Contains(t, n.Body(), "Bu Aminah")
	assert.Contains(t, n.Body(), "Rp100000")
	assert.Contains(t, n.Body(), "Gambar kurang jelas")

	n.Kind = model.NoticePaymentApproved
	n.GuardianName = nil
	assert.Contains(t, n.Body(), "sudah diverifikasi")
	assert.NotContains(t, n.Body(), "Bu Aminah")
}

func TestWhatsAppChannel(t *testing.T) {
	var calls atomic.Int32
	var got waMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewWhatsAppChannel(configs.NotifyConfig{WhatsAppURL: srv.URL, WhatsAppToken: "wa-token"}, logger.NewNop())
	ch.client.RetryWaitMin = 0
	ch.client.RetryWaitMax = 0

	n := sampleNotice()
	require.True(t, ch.Enabled(n))
	require.NoError(t, ch.Send(context.Background(), n))
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, "6281234567890", got.Phone)
	assert.Contains(t, got.Message, "SPP Juli")

	n.GuardianPhone = nil
	assert.False(t, ch.Enabled(n))
	assert.False(t, NewWhatsAppChannel(configs.NotifyConfig{}, logger.NewNop()).Enabled(sampleNotice()))
}

func TestWhatsAppChannelClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nomor tidak terdaftar", http.StatusBadRequest)
	}))
	defer srv.Close()

	ch := NewWhatsAppChannel(configs.NotifyConfig{WhatsAppURL: srv.URL}, logger.NewNop())
	err := ch.Send(context.Background(), sampleNotice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestEmailChannel(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	old := sendgridHost
	sendgridHost = srv.URL
	defer func() { sendgridHost = old }()

	ch := NewEmailChannel(configs.NotifyConfig{SendGridKey: "sg-key", SenderEmail: "noreply@pesantrenku.id", SenderName: "Pesantrenku"})
	n := sampleNotice()
	require.True(t, ch.Enabled(n))
	require.NoError(t, ch.Send(context.Background(), n))

	pers := got["personalizations"].([]any)[0].(map[string]any)
	assert.Equal(t, "[Pesantrenku] Pembayaran ditolak - SPP Juli", pers["subject"])

	n.GuardianEmail = strp("bukan-email")
	assert.False(t, ch.Enabled(n))
	assert.False(t, NewEmailChannel(configs.NotifyConfig{}).Enabled(sampleNotice()))
}

func TestInboxChannelStoresNotice(t *testing.T) {
	_, client := testutil.NewClient(t)
	repo := repository.NewNotificationRepository(client)
	ch := NewInboxChannel(repo)

	n := sampleNotice()
	require.NoError(t, ch.Send(context.Background(), n))

	rows, total, err := repo.ListByStudent(context.Background(), n.SchoolID, n.StudentID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NoticePaymentRejected, rows[0].NotificationType)
	assert.Equal(t, "Pembayaran ditolak", rows[0].NotificationTitle)
}
