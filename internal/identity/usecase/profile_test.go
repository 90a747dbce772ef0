package usecase

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/pkg/jwt"
)

// authedCtx builds a context carrying the claims the auth middleware would
// have attached.
func authedCtx(u entity.User) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: u.ID, UserEmail: u.Email})
}

func TestProfileRequiresAuth(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.Profile(context.Background(), ProfileInput{})
	wantErrCode(t, err, goerror.CodeUnauthorized)
}

func TestProfileOfDeletedUser(t *testing.T) {
	h := newHarness(t)

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 404, UserEmail: "gone@musicflow.test"})
	_, err := h.uc.Profile(ctx, ProfileInput{})
	wantErrCode(t, err, goerror.CodeUnauthorized)
}

func TestProfileUpdateRoundTrip(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")
	ctx := authedCtx(user)

	err := h.uc.ProfileUpdate(ctx, ProfileUpdateInput{
		FirstName:  "  Pat ",
		LastName:   "Moore",
		Phone:      "+6281234567890",
		Profession: "session guitarist",
		Genre:      "blues",
		Instrument: "guitar",
		SkillLevel: "intermediate",
		Bio:        "Plays weekends.",
	})
	if err != nil {
		t.Fatalf("update: unexpected error: %v", err)
	}

	out, err := h.uc.Profile(ctx, ProfileInput{})
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	if out.FirstName != "Pat" {
		t.Fatalf("first name not trimmed: %q", out.FirstName)
	}
	if out.Genre != "blues" || out.SkillLevel != "intermediate" {
		t.Fatalf("profile not persisted: %+v", out)
	}
	if out.Email != user.Email || out.Status != "Active" {
		t.Fatalf("account fields: %+v", out)
	}
}

func TestProfileUpdateRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")
	ctx := authedCtx(user)

	tests := map[string]ProfileUpdateInput{
		"missing first name": {LastName: "Moore"},
		"numeric first name": {FirstName: "Pat99"},
		"bad phone":          {FirstName: "Pat", Phone: "call-me"},
		"bad skill level":    {FirstName: "Pat", SkillLevel: "wizard"},
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			err := h.uc.ProfileUpdate(ctx, in)
			wantErrCode(t, err, goerror.CodeInvalidInput)
		})
	}
}

func TestProfileUpdateAvatar(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")
	ctx := authedCtx(user)

	err := h.uc.ProfileUpdateAvatar(ctx, ProfileUpdateAvatarInput{
		File:        bytes.NewReader([]byte("fake png bytes")),
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("avatar: unexpected error: %v", err)
	}

	if len(h.store.puts) != 1 {
		t.Fatalf("objects stored: got %d, want 1", len(h.store.puts))
	}
	if !strings.HasPrefix(h.store.puts[0], "avatars/7/") || !strings.HasSuffix(h.store.puts[0], ".png") {
		t.Fatalf("object key: %q", h.store.puts[0])
	}

	url := h.db.avatarURLs[user.ID]
	if !strings.HasPrefix(url, "https://cdn.musicflow.test/7/") {
		t.Fatalf("avatar url: %q", url)
	}
}

func TestProfileUpdateAvatarRejectsUnknownType(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")

	err := h.uc.ProfileUpdateAvatar(authedCtx(user), ProfileUpdateAvatarInput{
		File:        bytes.NewReader([]byte("%PDF-1.4")),
		ContentType: "application/pdf",
	})
	wantErrCode(t, err, goerror.CodeInvalidInput)

	if len(h.store.puts) != 0 {
		t.Fatalf("nothing should be stored, got %v", h.store.puts)
	}
}

func TestProfileUpdateAvatarTooLarge(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")

	// one byte over the configured 1 MiB cap
	blob := bytes.Repeat([]byte{0xab}, 1<<20+1)
	err := h.uc.ProfileUpdateAvatar(authedCtx(user), ProfileUpdateAvatarInput{
		File:        bytes.NewReader(blob),
		ContentType: "image/jpeg",
	})
	wantErrCode(t, err, goerror.CodeInvalidInput)

	if h.db.avatarURLs[user.ID] != "" {
		t.Fatal("avatar url must not change on a failed upload")
	}
}

func TestDashboardRoundTrip(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")
	ctx := authedCtx(user)

	err := h.uc.DashboardUpdate(ctx, DashboardUpdateInput{
		LastOpenedPage:   "lessons/slide-guitar-3",
		CompletedLessons: []string{"intro", "chords-1", "intro", "chords-2", "chords-1"},
		Notes:            "practice the turnaround",
		GuitarType:       "acoustic",
		PageTheme:        "dark",
	})
	if err != nil {
		t.Fatalf("update: unexpected error: %v", err)
	}

	out, err := h.uc.Dashboard(ctx, DashboardInput{})
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}

	// repeated lesson ids collapse, first occurrence order kept
	want := []string{"intro", "chords-1", "chords-2"}
	if len(out.CompletedLessons) != len(want) {
		t.Fatalf("completed lessons: got %v, want %v", out.CompletedLessons, want)
	}
	for i := range want {
		if out.CompletedLessons[i] != want[i] {
			t.Fatalf("completed lessons: got %v, want %v", out.CompletedLessons, want)
		}
	}
	if out.PageTheme != "dark" || out.GuitarType != "acoustic" {
		t.Fatalf("dashboard not persisted: %+v", out)
	}
}

func TestDashboardUpdateRejectsBadTheme(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, 7, "pat@musicflow.test", "a-solid-pass-12")

	err := h.uc.DashboardUpdate(authedCtx(user), DashboardUpdateInput{PageTheme: "sepia"})
	wantErrCode(t, err, goerror.CodeInvalidInput)
}

func TestDashboardRequiresAuth(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.Dashboard(context.Background(), DashboardInput{})
	wantErrCode(t, err, goerror.CodeUnauthorized)
}
