package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/burner-service/internal/service"
	httpmw "github.com/cwrk-planet/burner-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/burner-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, admSvc *service.AdmissionService, wsServer *ws.Server, allowedOrigins []string, secureCookies bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/rooms", func(rm chi.Router) {
		rm.With(middlewareChi.Timeout(30 * time.Second)).Post("/", h.CreateRoom)

		rm.Route("/{id}", func(rr chi.Router) {
			// Destroy validates the credential itself; routing it through
			// the gate would admit strangers as a side effect.
			rr.With(middlewareChi.Timeout(30 * time.Second)).Delete("/", h.DestroyRoom)

			rr.Group(func(pr chi.Router) {
				pr.Use(httpmw.Admission(admSvc, secureCookies))

				// Long-lived, so no request timeout here.
				pr.Get("/ws", wsServer.HandleWS)

				pr.Group(func(qr chi.Router) {
					qr.Use(middlewareChi.Timeout(30 * time.Second))
					qr.Get("/ttl", h.RoomTTL)
					qr.Get("/messages", h.ListMessages)
					qr.Post("/messages", h.SendMessage)
				})
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
