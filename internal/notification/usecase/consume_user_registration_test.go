package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/musicflowhq/musicflow/internal/pkg/clock"
	"github.com/musicflowhq/musicflow/internal/pkg/idempotency"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/mail"
	"github.com/musicflowhq/musicflow/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

type stubConfig map[string]string

func (c stubConfig) Close() error                     { return nil }
func (c stubConfig) GetSecond(string) time.Duration   { return 0 }
func (c stubConfig) GetMinute(string) time.Duration   { return 0 }
func (c stubConfig) GetHour(string) time.Duration     { return 0 }
func (c stubConfig) GetDay(string) time.Duration      { return 0 }
func (c stubConfig) GetInt(string) int                { return 0 }
func (c stubConfig) GetInt32(string) int32            { return 0 }
func (c stubConfig) GetInt64(string) int64            { return 0 }
func (c stubConfig) GetUint(string) uint              { return 0 }
func (c stubConfig) GetUint16(string) uint16          { return 0 }
func (c stubConfig) GetUint32(string) uint32          { return 0 }
func (c stubConfig) GetUint64(string) uint64          { return 0 }
func (c stubConfig) GetFloat32(string) float32        { return 0 }
func (c stubConfig) GetFloat64(string) float64        { return 0 }
func (c stubConfig) GetBool(string) bool              { return false }
func (c stubConfig) GetString(k string) string        { return c[k] }
func (c stubConfig) GetBinary(string) []byte          { return nil }
func (c stubConfig) GetArray(string) []string         { return nil }
func (c stubConfig) GetMap(string) map[string]string  { return nil }

type fakeMail struct {
	sent []mail.Message
	// failFirst makes the first send attempt fail, exercising the retry.
	failFirst bool
	attempts  int
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.attempts++
	if f.failFirst && f.attempts == 1 {
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newUsecase(t *testing.T, m *fakeMail) *Usecase {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	return NewNotification(Dependency{
		Config:      stubConfig{"app.web": "https://app.musicflow.test"},
		Clock:       clock.New(),
		Validator:   v,
		RepoMail:    m,
		Idempotency: idempotency.New(client),
		Instrument:  instrument.NewNoop(),
	})
}

func TestConsumeUserRegistration(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	in := ConsumeUserRegistrationInput{UserID: 7, Email: "pat@musicflow.test", FullName: "Pat Moore"}
	if err := uc.ConsumeUserRegistration(context.Background(), in); err != nil {
		t.Fatalf("consume: unexpected error: %v", err)
	}

	if len(m.sent) != 1 {
		t.Fatalf("emails sent: got %d, want 1", len(m.sent))
	}
	msg := m.sent[0]
	if msg.To[0] != in.Email || msg.Subject != "Welcome to MusicFlow" {
		t.Fatalf("message header: %+v", msg)
	}
	if !strings.Contains(msg.HTMLBody, "Pat Moore") {
		t.Fatal("body is missing the recipient name")
	}
	if !strings.Contains(msg.HTMLBody, "https://app.musicflow.test") {
		t.Fatal("body is missing the dashboard link")
	}
}

func TestConsumeUserRegistrationRedelivery(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	in := ConsumeUserRegistrationInput{UserID: 7, Email: "pat@musicflow.test", FullName: "Pat Moore"}
	if err := uc.ConsumeUserRegistration(context.Background(), in); err != nil {
		t.Fatalf("first delivery: unexpected error: %v", err)
	}
	if err := uc.ConsumeUserRegistration(context.Background(), in); err != nil {
		t.Fatalf("redelivery: unexpected error: %v", err)
	}

	if len(m.sent) != 1 {
		t.Fatalf("emails sent: got %d, want 1 (redelivery must not resend)", len(m.sent))
	}
}

func TestConsumeUserRegistrationRetriesSend(t *testing.T) {
	m := &fakeMail{failFirst: true}
	uc := newUsecase(t, m)

	in := ConsumeUserRegistrationInput{UserID: 7, Email: "pat@musicflow.test", FullName: "Pat Moore"}
	if err := uc.ConsumeUserRegistration(context.Background(), in); err != nil {
		t.Fatalf("consume: unexpected error: %v", err)
	}

	if m.attempts < 2 {
		t.Fatalf("send attempts: got %d, want at least 2", m.attempts)
	}
	if len(m.sent) != 1 {
		t.Fatalf("emails sent: got %d, want 1", len(m.sent))
	}
}

func TestConsumeUserRegistrationDropsInvalidPayload(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	// a poison message must be swallowed, not redelivered forever
	err := uc.ConsumeUserRegistration(context.Background(), ConsumeUserRegistrationInput{
		UserID: 0, Email: "not-an-email", FullName: "",
	})
	if err != nil {
		t.Fatalf("invalid payload: unexpected error: %v", err)
	}
	if len(m.sent) != 0 {
		t.Fatalf("emails sent: got %d, want 0", len(m.sent))
	}
}
