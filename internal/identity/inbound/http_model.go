package inbound

import "net/http"

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name"`
	AcceptTerms   bool   `json:"accept_terms"`
	AcceptPrivacy bool   `json:"accept_privacy"`
}

type PasswordForgotRequest struct {
	Email string `json:"email"`
}

// PasswordForgotResponse carries the flow cookie back to the browser so the
// later resend/verify/restart calls can be tied to this reset attempt.
type PasswordForgotResponse struct {
	cookie *http.Cookie
}

func (r PasswordForgotResponse) Cookies() []*http.Cookie { return []*http.Cookie{r.cookie} }

func (r PasswordForgotResponse) Message() string { return "reset instructions have been sent" }

type PasswordRedeemResponse struct{}

func (r PasswordRedeemResponse) Message() string { return "verification code has been sent" }

type PasswordResendResponse struct{}

func (r PasswordResendResponse) Message() string { return "a new reset link has been sent" }

type PasswordVerifyRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// PasswordVerifyResponse drops the flow cookie, the reset attempt is over.
type PasswordVerifyResponse struct {
	cookie *http.Cookie
}

func (r PasswordVerifyResponse) Cookies() []*http.Cookie { return []*http.Cookie{r.cookie} }

func (r PasswordVerifyResponse) Message() string { return "password has been updated" }

// PasswordRestartResponse drops the flow cookie.
type PasswordRestartResponse struct {
	cookie *http.Cookie
}

func (r PasswordRestartResponse) Cookies() []*http.Cookie { return []*http.Cookie{r.cookie} }

func (r PasswordRestartResponse) Message() string { return "reset flow has been cleared" }

type ProfileResponse struct {
	ID         int64  `json:"id,string"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Status     string `json:"status"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Profession string `json:"profession"`
	Genre      string `json:"genre"`
	Instrument string `json:"instrument"`
	SkillLevel string `json:"skill_level"`
	Bio        string `json:"bio"`
	AvatarURL  string `json:"avatar_url"`
}

type ProfileUpdateRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Profession string `json:"profession"`
	Genre      string `json:"genre"`
	Instrument string `json:"instrument"`
	SkillLevel string `json:"skill_level"`
	Bio        string `json:"bio"`
}

type DashboardResponse struct {
	LastOpenedPage   string   `json:"last_opened_page"`
	CompletedLessons []string `json:"completed_lessons"`
	Notes            string   `json:"notes"`
	GuitarType       string   `json:"guitar_type"`
	PageTheme        string   `json:"page_theme"`
}

type DashboardUpdateRequest struct {
	LastOpenedPage   string   `json:"last_opened_page"`
	CompletedLessons []string `json:"completed_lessons"`
	Notes            string   `json:"notes"`
	GuitarType       string   `json:"guitar_type"`
	PageTheme        string   `json:"page_theme"`
}
