// Package httpapi exposes the single action endpoint over HTTP: it decodes
// the action-tagged request envelope, dispatches it to the user and chat
// services and writes the uniform result envelope.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authrelay/internal/common"
	"github.com/dmitrijs2005/authrelay/internal/logging"
	"github.com/dmitrijs2005/authrelay/internal/server/auth"
	"github.com/dmitrijs2005/authrelay/internal/server/models"
	"github.com/dmitrijs2005/authrelay/internal/server/services"
)

// User-visible messages.
const (
	MsgMissingFields   = "Thiếu thông tin."
	MsgEmailExists     = "Email đã tồn tại."
	MsgAccountNotFound = "Không tìm thấy tài khoản."
	MsgWrongPassword   = "Sai mật khẩu."
	MsgInvalidAction   = "Action không hợp lệ."
	MsgPasswordTooLong = "Mật khẩu quá dài."
	MsgServerError     = "Lỗi server."
)

// Actions accepted in Request.Action.
const (
	ActionSignup = "signup"
	ActionLogin  = "login"
	ActionVerify = "verify"
	ActionLogout = "logout"
	ActionChat   = "chat"

	// actionInvalid labels metrics for anything else.
	actionInvalid = "invalid"
)

// Request is the action-tagged envelope accepted on POST /.
type Request struct {
	Action   string `json:"action"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name,omitempty"`
	Token    string `json:"token,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Result is the envelope written for every action.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Answer  string `json:"answer,omitempty"`
}

// UserService is the part of services.UserService the handler uses.
type UserService interface {
	Signup(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Verify(ctx context.Context, token string) (*models.User, error)
}

// ChatService is the part of services.ChatService the handler uses.
type ChatService interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Handler dispatches action requests.
type Handler struct {
	users   UserService
	chat    ChatService
	logger  logging.Logger
	metrics *Metrics
}

func NewHandler(us UserService, cs ChatService, l logging.Logger, m *Metrics) *Handler {
	return &Handler{
		users:   us,
		chat:    cs,
		logger:  l.With("module", "httpapi"),
		metrics: m,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := h.logger.With("request_id", RequestIDFromContext(ctx))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, common.MaxRequestBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn(ctx, "request body too large", "limit", tooLarge.Limit)
			h.finish(w, actionInvalid, start, http.StatusRequestEntityTooLarge, Result{Message: MsgInvalidAction})
			return
		}
		log.Error(ctx, "reading request body", "error", err)
		h.finish(w, actionInvalid, start, http.StatusInternalServerError, Result{Message: MsgServerError})
		return
	}

	req, err := decodeRequest(body)
	if err != nil {
		log.Info(ctx, "malformed request body", "error", err)
		h.finish(w, actionInvalid, start, http.StatusOK, Result{Message: MsgInvalidAction})
		return
	}

	action := metricsAction(req.Action)
	log = log.With("action", action)

	status, res := h.Dispatch(ctx, log, req)
	h.finish(w, action, start, status, res)
}

// decodeRequest parses body. An empty body is an empty request.
func decodeRequest(body []byte) (*Request, error) {
	req := &Request{}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Dispatch runs req and returns the HTTP status and result envelope.
// Domain failures are answered with 200 and a message; storage and other
// server faults with 500 and MsgServerError, their detail logged only.
func (h *Handler) Dispatch(ctx context.Context, log logging.Logger, req *Request) (int, Result) {
	switch req.Action {
	case ActionSignup:
		return h.signup(ctx, log, req)
	case ActionLogin:
		return h.login(ctx, log, req)
	case ActionVerify:
		return h.verify(ctx, log, req)
	case ActionLogout:
		return http.StatusOK, Result{Success: true}
	case ActionChat:
		return h.ask(ctx, log, req)
	default:
		return http.StatusOK, Result{Message: MsgInvalidAction}
	}
}

func (h *Handler) signup(ctx context.Context, log logging.Logger, req *Request) (int, Result) {
	err := h.users.Signup(ctx, req.Name, req.Email, req.Password)
	switch {
	case err == nil:
		return http.StatusOK, Result{Success: true}
	case errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusOK, Result{Message: MsgPasswordTooLong}
	case errors.Is(err, common.ErrValidation):
		return http.StatusOK, Result{Message: MsgMissingFields}
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusOK, Result{Message: MsgEmailExists}
	default:
		return serverError(ctx, log, err)
	}
}

func (h *Handler) login(ctx context.Context, log logging.Logger, req *Request) (int, Result) {
	sess, err := h.users.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
		return http.StatusOK, Result{Success: true, Token: sess.Token, Name: sess.Name, Email: sess.Email}
	case errors.Is(err, common.ErrValidation):
		return http.StatusOK, Result{Message: MsgMissingFields}
	case errors.Is(err, common.ErrNotFound):
		return http.StatusOK, Result{Message: MsgAccountNotFound}
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusOK, Result{Message: MsgWrongPassword}
	default:
		return serverError(ctx, log, err)
	}
}

func (h *Handler) verify(ctx context.Context, log logging.Logger, req *Request) (int, Result) {
	user, err := h.users.Verify(ctx, req.Token)
	switch {
	case err == nil:
		return http.StatusOK, Result{Success: true, Name: user.Name, Email: user.Email}
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusOK, Result{}
	default:
		return serverError(ctx, log, err)
	}
}

func (h *Handler) ask(ctx context.Context, log logging.Logger, req *Request) (int, Result) {
	answer, err := h.chat.Ask(ctx, req.Message)
	switch {
	case err == nil:
		return http.StatusOK, Result{Success: true, Answer: answer}
	case errors.Is(err, common.ErrValidation):
		return http.StatusOK, Result{Message: MsgMissingFields}
	default:
		return serverError(ctx, log, err)
	}
}

func serverError(ctx context.Context, log logging.Logger, err error) (int, Result) {
	log.Error(ctx, "request failed", "error", err)
	return http.StatusInternalServerError, Result{Message: MsgServerError}
}

func (h *Handler) finish(w http.ResponseWriter, action string, start time.Time, status int, res Result) {
	outcome := outcomeSuccess
	switch {
	case status >= http.StatusInternalServerError:
		outcome = outcomeError
	case !res.Success:
		outcome = outcomeRejected
	}
	h.metrics.observe(action, outcome, time.Since(start))

	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func metricsAction(action string) string {
	switch action {
	case ActionSignup, ActionLogin, ActionVerify, ActionLogout, ActionChat:
		return action
	default:
		return actionInvalid
	}
}
