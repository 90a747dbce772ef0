package usecase

import (
	"context"
	"testing"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/pkg/jwt"
)

func TestRegister(t *testing.T) {
	h := newHarness(t)

	err := h.uc.Register(context.Background(), RegisterInput{
		Email:         "New.Player@MusicFlow.Test",
		Password:      "a-solid-pass-12",
		FullName:      "New Player",
		AcceptTerms:   true,
		AcceptPrivacy: true,
		ClientIP:      "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if len(h.db.registrations) != 1 {
		t.Fatalf("registrations: got %d, want 1", len(h.db.registrations))
	}
	reg := h.db.registrations[0]
	if reg.Email != "new.player@musicflow.test" {
		t.Fatalf("email not normalized: %q", reg.Email)
	}
	if reg.Status != entity.UserStatusActive {
		t.Fatalf("status: got %v, want active", reg.Status)
	}

	if len(h.msg.published) != 1 {
		t.Fatalf("published events: got %d, want 1", len(h.msg.published))
	}
	if h.msg.published[0].Email != reg.Email || h.msg.published[0].UserID != reg.ID {
		t.Fatalf("published event does not match registration: %+v", h.msg.published[0])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.db.conflictEmails["taken@musicflow.test"] = true

	err := h.uc.Register(context.Background(), RegisterInput{
		Email:         "taken@musicflow.test",
		Password:      "a-solid-pass-12",
		FullName:      "New Player",
		AcceptTerms:   true,
		AcceptPrivacy: true,
		ClientIP:      "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeConflict)
}

func TestRegisterSurvivesPublishFailure(t *testing.T) {
	h := newHarness(t)
	h.msg.fail = true

	err := h.uc.Register(context.Background(), RegisterInput{
		Email:         "new.player@musicflow.test",
		Password:      "a-solid-pass-12",
		FullName:      "New Player",
		AcceptTerms:   true,
		AcceptPrivacy: true,
		ClientIP:      "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if len(h.db.registrations) != 1 {
		t.Fatalf("registrations: got %d, want 1", len(h.db.registrations))
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")

	out, err := h.uc.Login(context.Background(), LoginInput{
		Email:    "Pat@MusicFlow.Test",
		Password: "a-solid-pass-12",
		ClientIP: "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if out.TokenType != "Bearer" {
		t.Fatalf("token type: got %q, want Bearer", out.TokenType)
	}

	clm, err := h.jwt.Verify(out.AccessToken)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if clm.UserID != user.ID || clm.UserEmail != user.Email {
		t.Fatalf("claims: got %+v", clm)
	}
}

func TestLoginRememberMe(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")

	out, err := h.uc.Login(context.Background(), LoginInput{
		Email:      "pat@musicflow.test",
		Password:   "a-solid-pass-12",
		RememberMe: true,
		ClientIP:   "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatal("empty access token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")

	_, err := h.uc.Login(context.Background(), LoginInput{
		Email:    "pat@musicflow.test",
		Password: "not-the-password",
		ClientIP: "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.Login(context.Background(), LoginInput{
		Email:    "nobody@musicflow.test",
		Password: "a-solid-pass-12",
		ClientIP: "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeUnauthorized)
}

func TestLoginBannedAccount(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")
	h.db.users[user.ID].Status = entity.UserStatusBanned
	h.db.loginInfos[user.Email].Status = entity.UserStatusBanned

	_, err := h.uc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "a-solid-pass-12",
		ClientIP: "10.0.0.1",
	})
	wantErrCode(t, err, goerror.CodeForbidden)
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")

	// failed attempts count against the window too
	for i := 0; i < testRateLimit; i++ {
		_, err := h.uc.Login(context.Background(), LoginInput{
			Email:    "pat@musicflow.test",
			Password: "not-the-password",
			ClientIP: "10.0.0.5",
		})
		wantErrCode(t, err, goerror.CodeUnauthorized)
	}

	_, err := h.uc.Login(context.Background(), LoginInput{
		Email:    "pat@musicflow.test",
		Password: "a-solid-pass-12",
		ClientIP: "10.0.0.5",
	})
	wantErrCode(t, err, goerror.CodeTooManyRequest)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 7, UserEmail: "pat@musicflow.test"})
	if err := h.uc.Logout(ctx); err != nil {
		t.Fatalf("logout: unexpected error: %v", err)
	}

	err := h.uc.Logout(context.Background())
	wantErrCode(t, err, goerror.CodeUnauthorized)
}
