package email

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/pkg/logger"
)

type fakeSuppressions struct {
	suppressed map[string]bool
}

func (f *fakeSuppressions) Exists(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	return f.suppressed[email], nil
}
func (f *fakeSuppressions) Create(ctx context.Context, s *model.Suppression) error       { return nil }
func (f *fakeSuppressions) Delete(ctx context.Context, orgID uuid.UUID, e string) error  { return nil }
func (f *fakeSuppressions) List(ctx context.Context, orgID uuid.UUID) ([]*model.Suppression, error) {
	return nil, nil
}

type fakeSendLog struct {
	lastSent *time.Time
	entries  []*model.SendLog
}

func (f *fakeSendLog) Create(ctx context.Context, entry *model.SendLog) error {
	f.entries = append(f.entries, entry)
	return nil
}
func (f *fakeSendLog) LastSentAt(ctx context.Context, quoteID uuid.UUID) (*time.Time, error) {
	return f.lastSent, nil
}

type fakeEncryptor struct{}

func (fakeEncryptor) Encrypt(data []byte) ([]byte, error) { return data, nil }
func (fakeEncryptor) Decrypt(data []byte) ([]byte, error) { return data, nil }

type fakeDialer struct {
	hosts []string
	fail  map[string]error
	sent  int
}

func (f *fakeDialer) sender(host string) dialSender {
	return dialFunc(func(m ...*gomail.Message) error {
		f.hosts = append(f.hosts, host)
		if err := f.fail[host]; err != nil {
			return err
		}
		f.sent += len(m)
		return nil
	})
}

type dialFunc func(m ...*gomail.Message) error

func (fn dialFunc) DialAndSend(m ...*gomail.Message) error { return fn(m...) }

// Tuesday, well inside a 09:00-17:00 UTC window.
var insideWindow = time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

func newTestTransport(t *testing.T, suppressions *fakeSuppressions, sendLog *fakeSendLog, dialer *fakeDialer) *SMTPTransport {
	t.Helper()
	tr := NewSMTPTransport(SharedSMTPConfig{
		Host: "smtp.shared.example",
		Port: 587,
		From: "quotes@shared.example",
	}, suppressions, sendLog, fakeEncryptor{}, logger.NewLogger(&logger.Config{Output: io.Discard}))
	tr.now = func() time.Time { return insideWindow }
	tr.dial = func(host string, port int, user, pass string) dialSender {
		return dialer.sender(host)
	}
	return tr
}

func windowOrg() *model.Organization {
	return &model.Organization{
		Timezone:        "UTC",
		SendWindowStart: "09:00",
		SendWindowEnd:   "17:00",
	}
}

func testMessage() *Message {
	return &Message{
		OrganizationID: uuid.New(),
		QuoteID:        uuid.New(),
		EventID:        uuid.New(),
		Recipient:      "dana@example.com",
		Subject:        "Quote Q-1",
		Body:           "<p>Hello</p>",
	}
}

func TestSendSuccessViaSharedChannel(t *testing.T) {
	sendLog := &fakeSendLog{}
	dialer := &fakeDialer{}
	tr := newTestTransport(t, &fakeSuppressions{}, sendLog, dialer)

	outcome, err := tr.Send(context.Background(), windowOrg(), testMessage())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, ProviderSharedSMTP, outcome.Provider)
	require.NotNil(t, outcome.MessageID)
	assert.Equal(t, 1, dialer.sent)

	require.Len(t, sendLog.entries, 1)
	assert.Equal(t, ProviderSharedSMTP, sendLog.entries[0].Provider)
	assert.Equal(t, insideWindow, sendLog.entries[0].SentAt)
}

func TestSendSuppressedAtBoundary(t *testing.T) {
	dialer := &fakeDialer{}
	tr := newTestTransport(t, &fakeSuppressions{
		suppressed: map[string]bool{"dana@example.com": true},
	}, &fakeSendLog{}, dialer)

	outcome, err := tr.Send(context.Background(), windowOrg(), testMessage())
	require.NoError(t, err)
	assert.True(t, outcome.Suppressed)
	assert.False(t, outcome.Success)
	assert.Zero(t, dialer.sent, "suppressed mail must never dial")
}

func TestSendDeferredOutsideWindow(t *testing.T) {
	dialer := &fakeDialer{}
	tr := newTestTransport(t, &fakeSuppressions{}, &fakeSendLog{}, dialer)
	tr.now = func() time.Time { return time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC) }

	outcome, err := tr.Send(context.Background(), windowOrg(), testMessage())
	require.NoError(t, err)
	assert.True(t, outcome.Deferred)
	assert.Equal(t, "outside_window", outcome.DeferReason)
	assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), outcome.DeferredUntil)
	assert.Zero(t, dialer.sent)
}

func TestSendDeferredByCooldown(t *testing.T) {
	lastSent := insideWindow.Add(-12 * time.Hour)
	dialer := &fakeDialer{}
	tr := newTestTransport(t, &fakeSuppressions{}, &fakeSendLog{lastSent: &lastSent}, dialer)

	outcome, err := tr.Send(context.Background(), windowOrg(), testMessage())
	require.NoError(t, err)
	assert.True(t, outcome.Deferred)
	assert.Equal(t, "cooldown", outcome.DeferReason)
	assert.Equal(t, lastSent.Add(48*time.Hour), outcome.DeferredUntil)
	assert.Zero(t, dialer.sent)
}

func TestSendCooldownElapsed(t *testing.T) {
	lastSent := insideWindow.Add(-49 * time.Hour)
	dialer := &fakeDialer{}
	tr := newTestTransport(t, &fakeSuppressions{}, &fakeSendLog{lastSent: &lastSent}, dialer)

	outcome, err := tr.Send(context.Background(), windowOrg(), testMessage())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestSendPrefersTenantChannel(t *testing.T) {
	host := "smtp.tenant.example"
	from := "sales@tenant.example"
	org := windowOrg()
	org.SMTPHost = &host
	org.SMTPFrom = &from

	sendLog := &fakeSendLog{}
	dialer := &fakeDialer{}
	tr := newTestTransport(t, &fakeSuppressions{}, sendLog, dialer)

	outcome, err := tr.Send(context.Background(), org, testMessage())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, ProviderTenantSMTP, outcome.Provider)
	assert.Equal(t, []string{"smtp.tenant.example"}, dialer.hosts)
}

func TestSendFallsBackToSharedOnTenantFailure(t *testing.T) {
	host := "smtp.tenant.example"
	from := "sales@tenant.example"
	org := windowOrg()
	org.SMTPHost = &host
	org.SMTPFrom = &from

	dialer := &fakeDialer{fail: map[string]error{
		"smtp.tenant.example": errors.New("connection refused"),
	}}
	tr := newTestTransport(t, &fakeSuppressions{}, &fakeSendLog{}, dialer)

	outcome, err := tr.Send(context.Background(), org, testMessage())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, ProviderSharedSMTP, outcome.Provider)
	assert.Equal(t, []string{"smtp.tenant.example", "smtp.shared.example"}, dialer.hosts)
}

func TestSendFailureOutcome(t *testing.T) {
	dialer := &fakeDialer{fail: map[string]error{
		"smtp.shared.example": errors.New("550 mailbox unavailable"),
	}}
	sendLog := &fakeSendLog{}
	tr := newTestTransport(t, &fakeSuppressions{}, sendLog, dialer)

	outcome, err := tr.Send(context.Background(), windowOrg(), testMessage())
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "550")
	assert.Empty(t, sendLog.entries, "failed sends must not enter the send log")
}

func TestCanSend(t *testing.T) {
	tr := newTestTransport(t, &fakeSuppressions{}, &fakeSendLog{}, &fakeDialer{})
	assert.True(t, tr.CanSend(windowOrg()))

	bare := NewSMTPTransport(SharedSMTPConfig{}, &fakeSuppressions{}, &fakeSendLog{},
		fakeEncryptor{}, logger.NewLogger(&logger.Config{Output: io.Discard}))
	assert.False(t, bare.CanSend(windowOrg()))

	host := "smtp.tenant.example"
	from := "sales@tenant.example"
	org := windowOrg()
	org.SMTPHost = &host
	org.SMTPFrom = &from
	assert.True(t, bare.CanSend(org))
}
