package reset

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"lexhub/gatekeeper/pkg/telemetry/logging"
)

// Routes served by the reset handler.
const (
	ForgotPasswordPath = "/forgot-password"
	ResetPasswordPath  = "/reset-password"
	ValidateTokenPath  = "/validate-token"
)

// Response messages. Like the validation messages, these are displayed
// verbatim by the frontend.
const (
	msgForgotGeneric  = "Se o email estiver cadastrado, você receberá as instruções de redefinição de senha."
	msgResetSuccess   = "Senha redefinida com sucesso"
	msgPasswordLength = "A senha deve ter pelo menos 8 caracteres"
	msgEmailRequired  = "Email é obrigatório"
	msgUpdateFailed   = "Não foi possível redefinir a senha. Tente novamente."
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// Handler exposes the password-reset HTTP surface.
type Handler struct {
	service *Service
	mailer  Mailer
	updater PasswordUpdater
	logger  *slog.Logger
}

// NewHandler creates the reset HTTP handler.
func NewHandler(service *Service, mailer Mailer, updater PasswordUpdater, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		mailer:  mailer,
		updater: updater,
		logger:  logger.With("component", "reset.handler"),
	}
}

// Register mounts the reset endpoints on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+ForgotPasswordPath, h.handleForgotPassword)
	mux.HandleFunc("POST "+ResetPasswordPath, h.handleResetPassword)
	mux.HandleFunc("GET "+ValidateTokenPath, h.handleValidateToken)
}

// handleForgotPassword issues a reset token. The response is the same
// generic 200 whether or not the email exists, so the endpoint cannot be
// used to enumerate accounts.
func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgEmailRequired})
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgEmailRequired})
		return
	}

	token, err := h.service.Issue(r.Context(), email)
	if err != nil {
		// Still answer generically: a storage hiccup must not turn the
		// endpoint into an oracle.
		h.logger.Error("failed to issue reset token", "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"message": msgForgotGeneric})
		return
	}

	if err := h.mailer.SendResetLink(r.Context(), email, token); err != nil {
		h.logger.Error("failed to send reset link",
			"email", logging.MaskEmail(email),
			"error", err,
		)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msgForgotGeneric})
}

// handleResetPassword consumes a token and applies the new password.
func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": MsgTokenInvalid})
		return
	}
	if len(req.Password) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgPasswordLength})
		return
	}

	validation := h.service.Validate(r.Context(), req.Token)
	if !validation.IsValid {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validation.Error})
		return
	}

	if err := h.updater.UpdatePassword(r.Context(), validation.Email, req.Password); err != nil {
		h.logger.Error("password update failed",
			"email", logging.MaskEmail(validation.Email),
			"error", err,
		)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgUpdateFailed})
		return
	}

	// The token is consumed only after the update succeeded: a failed
	// update leaves it usable for a retry.
	if err := h.service.MarkUsed(r.Context(), req.Token); err != nil {
		h.logger.Error("failed to mark token used", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msgResetSuccess})
}

// handleValidateToken reports whether a token is still usable, for the
// frontend to decide whether to render the reset form.
func (h *Handler) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	validation := h.service.Validate(r.Context(), token)
	writeJSON(w, http.StatusOK, validation)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
