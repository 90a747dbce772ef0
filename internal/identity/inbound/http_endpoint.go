package inbound

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/musicflowhq/musicflow/internal/identity/usecase"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/pkg/router"
)

// flowCookieName identifies the browser's reset attempt. The cookie is scoped
// to the password endpoints and never leaves this module.
const flowCookieName = "mf_reset_flow"

// HTTPEndpoint exposes HTTP handlers for authentication, the password reset
// pipeline, and profile/dashboard workflows.
type HTTPEndpoint struct {
	uc uc
}

func newFlowCookie(id string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flowCookieName,
		Value:    id,
		Path:     "/api/v1/identity/password",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearFlowCookie() *http.Cookie {
	return newFlowCookie("", -1)
}

func flowID(r *router.Request) string {
	c, err := r.Cookie(flowCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Login authenticates a user and returns a bearer token.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		ClientIP:   r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
	}, nil
}

// Register creates a new account with its profile and dashboard.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		FullName:      req.FullName,
		AcceptTerms:   req.AcceptTerms,
		AcceptPrivacy: req.AcceptPrivacy,
		ClientIP:      r.ClientIP(),
	})
}

// Logout ends the session; the client is expected to discard its token.
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	return nil, h.uc.Logout(r.Context())
}

// PasswordForgot starts the reset flow and plants the flow cookie.
func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{
		Email:    req.Email,
		ClientIP: r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return PasswordForgotResponse{cookie: newFlowCookie(resp.FlowID, 0)}, nil
}

// PasswordRedeem spends the emailed link's token, usually scanned on a second
// device, and triggers the verification code email.
func (h *HTTPEndpoint) PasswordRedeem(r *router.Request) (any, error) {
	if err := h.uc.PasswordRedeem(r.Context(), usecase.PasswordRedeemInput{
		Token: r.GetParam("token"),
	}); err != nil {
		return nil, err
	}

	return PasswordRedeemResponse{}, nil
}

// PasswordResend mails a fresh link for the cookie's flow.
func (h *HTTPEndpoint) PasswordResend(r *router.Request) (any, error) {
	if err := h.uc.PasswordResend(r.Context(), usecase.PasswordResendInput{
		FlowID:   flowID(r),
		ClientIP: r.ClientIP(),
	}); err != nil {
		return nil, err
	}

	return PasswordResendResponse{}, nil
}

// PasswordVerify takes the emailed code plus the new password and finishes the
// flow.
func (h *HTTPEndpoint) PasswordVerify(r *router.Request) (any, error) {
	var req PasswordVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordVerify(r.Context(), usecase.PasswordVerifyInput{
		Code:        req.Code,
		NewPassword: req.NewPassword,
		FlowID:      flowID(r),
		ClientIP:    r.ClientIP(),
	}); err != nil {
		return nil, err
	}

	return PasswordVerifyResponse{cookie: clearFlowCookie()}, nil
}

// PasswordRestart abandons the current flow and clears the cookie.
func (h *HTTPEndpoint) PasswordRestart(r *router.Request) (any, error) {
	if err := h.uc.PasswordRestart(r.Context(), usecase.PasswordRestartInput{
		FlowID: flowID(r),
	}); err != nil {
		return nil, err
	}

	return PasswordRestartResponse{cookie: clearFlowCookie()}, nil
}

// Profile returns the authenticated user's account and profile data.
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context(), usecase.ProfileInput{})
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:         resp.ID,
		Email:      resp.Email,
		FullName:   resp.FullName,
		Status:     resp.Status,
		FirstName:  resp.FirstName,
		LastName:   resp.LastName,
		Phone:      resp.Phone,
		Profession: resp.Profession,
		Genre:      resp.Genre,
		Instrument: resp.Instrument,
		SkillLevel: resp.SkillLevel,
		Bio:        resp.Bio,
		AvatarURL:  resp.AvatarURL,
	}, nil
}

// ProfileUpdate modifies the authenticated user's profile attributes.
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req ProfileUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Profession: req.Profession,
		Genre:      req.Genre,
		Instrument: req.Instrument,
		SkillLevel: req.SkillLevel,
		Bio:        req.Bio,
	})
}

// ProfileUpdateAvatar streams the uploaded image into object storage.
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	ctx := r.Context()

	file, err := r.StreamSingleFile("avatar")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, goerror.NewInvalidFormat()
	}

	return nil, h.uc.ProfileUpdateAvatar(ctx, usecase.ProfileUpdateAvatarInput{
		File:        io.MultiReader(bytes.NewReader(head[:n]), file),
		ContentType: http.DetectContentType(head[:n]),
	})
}

// Dashboard returns the authenticated user's learning workspace state.
func (h *HTTPEndpoint) Dashboard(r *router.Request) (any, error) {
	resp, err := h.uc.Dashboard(r.Context(), usecase.DashboardInput{})
	if err != nil {
		return nil, err
	}

	return DashboardResponse{
		LastOpenedPage:   resp.LastOpenedPage,
		CompletedLessons: resp.CompletedLessons,
		Notes:            resp.Notes,
		GuitarType:       resp.GuitarType,
		PageTheme:        resp.PageTheme,
	}, nil
}

// DashboardUpdate replaces the authenticated user's workspace state.
func (h *HTTPEndpoint) DashboardUpdate(r *router.Request) (any, error) {
	var req DashboardUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.DashboardUpdate(r.Context(), usecase.DashboardUpdateInput{
		LastOpenedPage:   req.LastOpenedPage,
		CompletedLessons: req.CompletedLessons,
		Notes:            req.Notes,
		GuitarType:       req.GuitarType,
		PageTheme:        req.PageTheme,
	})
}
