package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/loginlink/loginlink/internal/common"
)

// genericRedeemError is the single user-visible redemption failure. It must
// not vary with the cause: an unknown user id and a token mismatch read the
// same.
const genericRedeemError = "Invalid one-time login token"

type issueRequest struct {
	User string `json:"user"`
	// Count is a pointer so an absent field (default of one token) can be
	// told apart from an explicit zero, which is a caller bug.
	Count       *int `json:"count"`
	DelayDelete bool `json:"delay_delete"`
}

type issueResponse struct {
	URLs []string `json:"urls"`
}

type requestLoginRequest struct {
	Email string `json:"email"`
}

type requestLoginResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
	// Dashboard points an already-authenticated requester at their
	// existing session; it never discloses which part of the credential
	// was invalid.
	Dashboard string `json:"dashboard,omitempty"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "OK")
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "malformed request body"})
		return
	}
	count := 1
	if req.Count != nil {
		count = *req.Count
	}

	urls, err := s.manager.Issue(ctx, actorFromContext(ctx), req.User, count, req.DelayDelete)
	if err != nil {
		s.logger.Warn(ctx, "issue request rejected", "error", err)

		switch {
		case errors.Is(err, common.ErrInvalidArgument):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{Error: "invalid token count"})
		case errors.Is(err, common.ErrorUnauthenticated):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, errorResponse{Error: "authentication required"})
		case errors.Is(err, common.ErrorUnauthorized):
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, errorResponse{Error: "not allowed"})
		case errors.Is(err, common.ErrorNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, errorResponse{Error: "user not found"})
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, errorResponse{Error: "internal error"})
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, issueResponse{URLs: urls})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	tokenValue := r.URL.Query().Get("token")

	session, err := s.manager.Redeem(ctx, userID, tokenValue)
	if err != nil {
		resp := errorResponse{Error: genericRedeemError}
		if actorFromContext(ctx) != nil {
			resp.Dashboard = s.dashboardPath
		}
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, session.RedirectPath, http.StatusFound)
}

func (s *Server) handleRequestLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req requestLoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "malformed request body"})
		return
	}

	if err := s.manager.RequestLogin(ctx, req.Email); err != nil {
		s.logger.Error(ctx, "login request failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, requestLoginResponse{Success: false})
		return
	}

	// success regardless of whether the address is registered
	render.JSON(w, r, requestLoginResponse{Success: true})
}
