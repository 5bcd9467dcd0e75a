package routers

import (
	"github.com/go-chi/chi/v5"

	"quizduel/internal/auth"
	matchManager "quizduel/internal/match_management"
)

// MatchRoutes wires the match engine's HTTP surface. Mutating endpoints sit
// behind the authenticator middleware; the websocket stream authenticates
// via a token query parameter since browsers cannot set headers on upgrades.
func MatchRoutes(r chi.Router, h *matchManager.Handler, jwtSecret []byte) {
	r.Route("/api/v1/match", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))
			r.Post("/create", h.CreateHandler)
			r.Post("/join", h.JoinHandler)
			r.Post("/answer", h.AnswerHandler)
		})

		r.Get("/ws", h.WsHandler)
		r.Get("/{code}", h.LoadHandler)
	})

	r.Get("/api/v1/questions", h.QuestionsHandler)
}
