package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes returns the router serving the API.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.Authenticate)

		// Board routes
		r.Get("/boards", h.ListBoards)
		r.Post("/boards", h.CreateBoard)
		r.Get("/boards/{id}", h.GetBoard)
		r.Put("/boards/{id}", h.UpdateBoard)
		r.Delete("/boards/{id}", h.DeleteBoard)
		r.Post("/boards/{id}/members", h.AddBoardMember)
		r.Delete("/boards/{id}/members/{userID}", h.RemoveBoardMember)
		r.Get("/boards/{id}/activity", h.BoardActivity)
		r.Get("/boards/{id}/labels", h.ListLabels)
		r.Post("/boards/{id}/labels", h.CreateLabel)

		// Synchronization routes
		r.Get("/boards/{id}/lists", h.BoardLists)
		r.Get("/boards/{id}/stream", h.BoardStream)
		r.Post("/cards/{id}/move", h.MoveCard)

		// List routes
		r.Post("/boards/{id}/lists", h.CreateList)
		r.Post("/boards/{id}/lists/reorder", h.ReorderLists)
		r.Put("/lists/{id}", h.UpdateList)
		r.Delete("/lists/{id}", h.DeleteList)

		// Card routes
		r.Post("/lists/{id}/cards", h.CreateCard)
		r.Put("/cards/{id}", h.UpdateCard)
		r.Delete("/cards/{id}", h.DeleteCard)
		r.Post("/cards/{id}/labels/{labelID}", h.AddCardLabel)
		r.Delete("/cards/{id}/labels/{labelID}", h.RemoveCardLabel)
		r.Post("/cards/{id}/members/{userID}", h.AssignCardMember)
		r.Delete("/cards/{id}/members/{userID}", h.UnassignCardMember)
		r.Get("/cards/{id}/comments", h.ListComments)
		r.Post("/cards/{id}/comments", h.CreateComment)
	})

	return r
}
