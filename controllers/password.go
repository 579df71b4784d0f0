package controllers

import (
	"net/http"

	"go-storefront/services"

	"go.uber.org/zap"
)

// PasswordController runs the emailed-code password reset
type PasswordController struct {
	resets  *services.PasswordResetService
	cookies CookieSettings
	logger  *zap.Logger
}

func NewPasswordController(resets *services.PasswordResetService, cookies CookieSettings, logger *zap.Logger) *PasswordController {
	return &PasswordController{resets: resets, cookies: cookies, logger: logger}
}

// ForgotPassword emails a reset code
func (pc *PasswordController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in services.RequestResetInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := pc.resets.RequestChallenge(ctx, in); err != nil {
		writeError(w, pc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "A reset code has been sent to your email"})
}

// VerifyOTP checks a reset code without using it up
func (pc *PasswordController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in services.VerifyResetInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := pc.resets.VerifyChallenge(ctx, in); err != nil {
		writeError(w, pc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Code verified"})
}

// ResetPassword sets the new password and signs the user in
func (pc *PasswordController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in services.CompleteResetInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	session, err := pc.resets.CompleteReset(ctx, in)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}

	pc.cookies.setSession(w, session.Token)
	writeJSON(w, http.StatusOK, session)
}
