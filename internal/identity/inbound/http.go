package inbound

import (
	"context"

	"github.com/musicflowhq/musicflow/internal/identity/usecase"
	"github.com/musicflowhq/musicflow/internal/pkg/router"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Register(ctx context.Context, in usecase.RegisterInput) error
	Logout(ctx context.Context) error

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) (*usecase.PasswordForgotOutput, error)
	PasswordRedeem(ctx context.Context, in usecase.PasswordRedeemInput) error
	PasswordResend(ctx context.Context, in usecase.PasswordResendInput) error
	PasswordVerify(ctx context.Context, in usecase.PasswordVerifyInput) error
	PasswordRestart(ctx context.Context, in usecase.PasswordRestartInput) error

	Profile(ctx context.Context, in usecase.ProfileInput) (*usecase.ProfileOutput, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) error
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) error

	Dashboard(ctx context.Context, in usecase.DashboardInput) (*usecase.DashboardOutput, error)
	DashboardUpdate(ctx context.Context, in usecase.DashboardUpdateInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Auth
	r.POST("/api/v1/identity/login", end.Login)
	r.POST("/api/v1/identity/register", end.Register)
	r.POST("/api/v1/identity/logout", end.Logout) // need authenticated

	// Password reset pipeline
	r.POST("/api/v1/identity/password/forgot", end.PasswordForgot)
	r.GET("/api/v1/identity/password/reset/:token", end.PasswordRedeem) // scanned from the emailed QR link
	r.POST("/api/v1/identity/password/resend", end.PasswordResend)
	r.POST("/api/v1/identity/password/verify", end.PasswordVerify)
	r.POST("/api/v1/identity/password/restart", end.PasswordRestart)

	// User Profile (need authenticated)
	r.GET("/api/v1/identity/profile", end.Profile)
	r.PUT("/api/v1/identity/profile", end.ProfileUpdate)
	r.PUT("/api/v1/identity/profile/avatar", end.ProfileUpdateAvatar)

	// Dashboard (need authenticated)
	r.GET("/api/v1/identity/dashboard", end.Dashboard)
	r.PUT("/api/v1/identity/dashboard", end.DashboardUpdate)
}
