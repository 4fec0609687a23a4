package httpmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/burner-service/internal/domain"
	"github.com/cwrk-planet/burner-service/internal/service"

	"github.com/go-chi/chi/v5"
)

type ctxKey string

const ctxKeyToken ctxKey = "room_token"

// CookieName is the bearer credential cookie. It is Path-scoped to one
// room, so a token for room A is never presented for room B.
const CookieName = "x-auth-token"

type AdmissionEvaluator interface {
	Evaluate(ctx context.Context, roomID, presented string) (service.Admission, error)
}

// Admission gates every room-content route: it runs before any message or
// TTL is served. Returning participants pass through; new ones get a
// token minted and set as their credential; full and vanished rooms are
// turned away here.
func Admission(adm AdmissionEvaluator, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roomID := chi.URLParam(r, "id")
			if roomID == "" {
				http.Error(w, `{"error":"room-not-found"}`, http.StatusNotFound)
				return
			}

			var presented string
			if c, err := r.Cookie(CookieName); err == nil {
				presented = c.Value
			}

			res, err := adm.Evaluate(r.Context(), roomID, presented)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrRoomNotFound):
					http.Error(w, `{"error":"room-not-found"}`, http.StatusNotFound)
				case errors.Is(err, domain.ErrRoomFull):
					http.Error(w, `{"error":"room-full"}`, http.StatusConflict)
				default:
					slog.Error("admission failed", "room", roomID, "err", err)
					http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
				}
				return
			}

			if res.New {
				http.SetCookie(w, CredentialCookie(roomID, res.Token, secureCookies))
			}

			ctx := context.WithValue(r.Context(), ctxKeyToken, res.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CredentialCookie builds the room-scoped credential cookie.
func CredentialCookie(roomID, token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/rooms/" + roomID,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func TokenFromCtx(ctx context.Context) string {
	if v := ctx.Value(ctxKeyToken); v != nil {
		if tok, ok := v.(string); ok {
			return tok
		}
	}
	return ""
}
