package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

// lastLink returns the most recently mailed reset link.
func lastLink(t *testing.T, m *fakeMail) string {
	t.Helper()

	if len(m.links) == 0 {
		t.Fatal("no reset link was mailed")
	}
	return m.links[len(m.links)-1]
}

// tokenFromLink pulls the raw delivery token out of a mailed reset link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()

	i := strings.LastIndex(link, "/")
	if i < 0 || i == len(link)-1 {
		t.Fatalf("malformed reset link %q", link)
	}
	return link[i+1:]
}

// lastCode returns the most recently mailed verification code.
func lastCode(t *testing.T, m *fakeMail) string {
	t.Helper()

	if len(m.codes) == 0 {
		t.Fatal("no verification code was mailed")
	}
	return m.codes[len(m.codes)-1]
}

func TestPasswordResetEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	out, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}
	if out.FlowID == "" {
		t.Fatal("forgot: empty flow id")
	}

	link := lastLink(t, h.mail)
	if !strings.HasPrefix(link, "https://app.musicflow.test/api/v1/identity/password/reset/") {
		t.Fatalf("unexpected link shape: %q", link)
	}

	// the emailed link is scanned on a second device
	token := tokenFromLink(t, link)
	if err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: token}); err != nil {
		t.Fatalf("redeem: unexpected error: %v", err)
	}

	code := lastCode(t, h.mail)
	if len(code) != 6 {
		t.Fatalf("code length: got %d, want 6", len(code))
	}

	// browser session moved forward
	sess, err := h.sessions.Get(ctx, out.FlowID)
	if err != nil {
		t.Fatalf("session get: %v", err)
	}
	if sess.State != flowsession.StateAwaitingCode {
		t.Fatalf("session state: got %q, want %q", sess.State, flowsession.StateAwaitingCode)
	}

	if err := h.uc.PasswordVerify(ctx, PasswordVerifyInput{
		FlowID:      out.FlowID,
		Code:        code,
		NewPassword: "brand-new-pass-9",
		ClientIP:    "10.0.0.1",
	}); err != nil {
		t.Fatalf("verify: unexpected error: %v", err)
	}

	newHash, ok := h.db.passwords[user.ID]
	if !ok {
		t.Fatal("password was not updated")
	}
	if !h.bcrypt.Verify(newHash, "brand-new-pass-9") {
		t.Fatal("stored hash does not match the new password")
	}

	// flow session is gone
	if _, err := h.sessions.Get(ctx, out.FlowID); !errors.Is(err, flowsession.ErrNotFound) {
		t.Fatalf("session should be deleted, got %v", err)
	}
}

func TestPasswordForgotUnknownEmail(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.PasswordForgot(context.Background(), PasswordForgotInput{
		Email:    "nobody@musicflow.test",
		ClientIP: "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeNotFound)
}

func TestPasswordForgotMailFailureRollsBackToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")
	h.mail.failLink = true

	_, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	wantErrCode(t, err, goerror.CodeUnavailable)

	// no live token may remain after the rollback
	for _, key := range h.mr.Keys() {
		if strings.HasPrefix(key, "reset:token:") {
			t.Fatalf("orphaned delivery token %q", key)
		}
	}
}

func TestPasswordRedeemTwice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	if _, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"}); err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}
	token := tokenFromLink(t, lastLink(t, h.mail))

	if err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: token}); err != nil {
		t.Fatalf("first redeem: unexpected error: %v", err)
	}

	err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: token})
	wantErrCode(t, err, goerror.CodeUnauthorized)

	// the losing scan must not have minted a second code
	if len(h.mail.codes) != 1 {
		t.Fatalf("codes mailed: got %d, want 1", len(h.mail.codes))
	}
}

func TestPasswordRedeemExpiredToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	if _, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"}); err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}
	token := tokenFromLink(t, lastLink(t, h.mail))

	h.mr.FastForward(2*time.Minute + time.Second)

	err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: token})
	wantErrCode(t, err, goerror.CodeUnauthorized)
}

func TestPasswordVerifyWrongCodeSpendsIt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	out, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}
	token := tokenFromLink(t, lastLink(t, h.mail))
	if err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: token}); err != nil {
		t.Fatalf("redeem: unexpected error: %v", err)
	}

	code := lastCode(t, h.mail)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	err = h.uc.PasswordVerify(ctx, PasswordVerifyInput{
		FlowID:      out.FlowID,
		Code:        wrong,
		NewPassword: "brand-new-pass-9",
		ClientIP:    "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeUnauthorized)

	// one wrong guess voids the code, even the right one is refused now
	err = h.uc.PasswordVerify(ctx, PasswordVerifyInput{
		FlowID:      out.FlowID,
		Code:        code,
		NewPassword: "brand-new-pass-9",
		ClientIP:    "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeUnauthorized)

	if _, ok := h.db.passwords[user.ID]; ok {
		t.Fatal("password must not change on a failed verify")
	}
}

func TestPasswordVerifyBeforeRedeem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	out, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}

	err = h.uc.PasswordVerify(ctx, PasswordVerifyInput{
		FlowID:      out.FlowID,
		Code:        "123456",
		NewPassword: "brand-new-pass-9",
		ClientIP:    "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeUnauthorized)
}

func TestPasswordResendRevokesOldLink(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	out, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}
	oldToken := tokenFromLink(t, lastLink(t, h.mail))

	if err := h.uc.PasswordResend(ctx, PasswordResendInput{FlowID: out.FlowID, ClientIP: "10.0.0.1"}); err != nil {
		t.Fatalf("resend: unexpected error: %v", err)
	}
	newToken := tokenFromLink(t, lastLink(t, h.mail))
	if newToken == oldToken {
		t.Fatal("resend must mint a fresh token")
	}

	err = h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: oldToken})
	wantErrCode(t, err, goerror.CodeUnauthorized)

	if err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: newToken}); err != nil {
		t.Fatalf("redeem new token: unexpected error: %v", err)
	}
}

func TestPasswordResendWithoutSession(t *testing.T) {
	h := newHarness(t)

	err := h.uc.PasswordResend(context.Background(), PasswordResendInput{FlowID: "gone", ClientIP: "10.0.0.1"})
	wantErrCode(t, err, goerror.CodeUnauthorized)
}

func TestPasswordRestartClearsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	out, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}
	token := tokenFromLink(t, lastLink(t, h.mail))
	if err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: token}); err != nil {
		t.Fatalf("redeem: unexpected error: %v", err)
	}
	code := lastCode(t, h.mail)

	if err := h.uc.PasswordRestart(ctx, PasswordRestartInput{FlowID: out.FlowID}); err != nil {
		t.Fatalf("restart: unexpected error: %v", err)
	}

	err = h.uc.PasswordVerify(ctx, PasswordVerifyInput{
		FlowID:      out.FlowID,
		Code:        code,
		NewPassword: "brand-new-pass-9",
		ClientIP:    "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeUnauthorized)

	// restarting again, or with no session at all, is a no-op
	if err := h.uc.PasswordRestart(ctx, PasswordRestartInput{FlowID: out.FlowID}); err != nil {
		t.Fatalf("second restart: unexpected error: %v", err)
	}
	if err := h.uc.PasswordRestart(ctx, PasswordRestartInput{}); err != nil {
		t.Fatalf("restart without flow: unexpected error: %v", err)
	}
}

func TestPasswordRedeemBannedAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	if _, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"}); err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}
	token := tokenFromLink(t, lastLink(t, h.mail))

	// banned after the link was mailed, the scan must be refused
	h.db.users[user.ID].Status = entity.UserStatusBanned

	err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: token})
	wantErrCode(t, err, goerror.CodeForbidden)

	if len(h.mail.codes) != 0 {
		t.Fatalf("codes mailed: got %d, want 0", len(h.mail.codes))
	}
}

func TestPasswordVerifyBannedAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	out, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}
	token := tokenFromLink(t, lastLink(t, h.mail))
	if err := h.uc.PasswordRedeem(ctx, PasswordRedeemInput{Token: token}); err != nil {
		t.Fatalf("redeem: unexpected error: %v", err)
	}
	code := lastCode(t, h.mail)

	// banned mid-flow, even the right code must not change the password
	h.db.users[user.ID].Status = entity.UserStatusBanned

	err = h.uc.PasswordVerify(ctx, PasswordVerifyInput{
		FlowID:      out.FlowID,
		Code:        code,
		NewPassword: "brand-new-pass-9",
		ClientIP:    "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeForbidden)

	if _, ok := h.db.passwords[user.ID]; ok {
		t.Fatal("password must not change for a banned account")
	}
}

func TestPasswordResendBannedAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	out, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("forgot: unexpected error: %v", err)
	}

	h.db.users[user.ID].Status = entity.UserStatusBanned

	err = h.uc.PasswordResend(ctx, PasswordResendInput{FlowID: out.FlowID, ClientIP: "10.0.0.1"})
	wantErrCode(t, err, goerror.CodeForbidden)

	if len(h.mail.links) != 1 {
		t.Fatalf("links mailed: got %d, want 1 (no fresh link for a banned account)", len(h.mail.links))
	}
}

func TestPasswordForgotRateLimited(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	for i := 0; i < testRateLimit; i++ {
		if _, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.9"}); err != nil {
			t.Fatalf("forgot %d: unexpected error: %v", i+1, err)
		}
	}

	_, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.9"})
	wantErrCode(t, err, goerror.CodeTooManyRequest)

	// a different client is not affected
	if _, err := h.uc.PasswordForgot(ctx, PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.10"}); err != nil {
		t.Fatalf("other client: unexpected error: %v", err)
	}
}

func TestPasswordForgotDeniedWhenLimiterDown(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 1, "pat@musicflow.test", "old-password-1")

	h.mr.Close()

	_, err := h.uc.PasswordForgot(context.Background(), PasswordForgotInput{Email: user.Email, ClientIP: "10.0.0.1"})
	wantErrCode(t, err, goerror.CodeTooManyRequest)
}
