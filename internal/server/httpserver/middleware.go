package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/loginlink/loginlink/internal/server/auth"
	"github.com/loginlink/loginlink/internal/server/models"
)

type ctxKey string

const actorKey ctxKey = "actor"

// SessionCookieName carries the session JWT set after a successful
// redemption.
const SessionCookieName = "loginlink_session"

// withActor resolves the requesting principal from a Bearer token or the
// session cookie. An absent or invalid credential leaves the actor nil;
// endpoints decide what unauthenticated means for them.
func (s *Server) withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenString := bearerToken(r); tokenString != "" {
			if actor := s.actorFromToken(tokenString); actor != nil {
				r = r.WithContext(context.WithValue(r.Context(), actorKey, actor))
			}
		} else if cookie, err := r.Cookie(SessionCookieName); err == nil {
			if actor := s.actorFromToken(cookie.Value); actor != nil {
				r = r.WithContext(context.WithValue(r.Context(), actorKey, actor))
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) actorFromToken(tokenString string) *models.Actor {
	claims, err := auth.GetClaimsFromToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil
	}
	return &models.Actor{UserID: claims.UserID, ManageUsers: claims.ManageUsers}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func actorFromContext(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(actorKey).(*models.Actor)
	return actor
}
