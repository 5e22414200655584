package hr

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/bizsuite/handler"
)

type Service struct {
	store  *Store
	logger *slog.Logger
}

func NewService(store *Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, logger: log}
}

type HireRequest struct {
	Name    string    `json:"name"`
	Title   string    `json:"title"`
	HiredOn time.Time `json:"hired_on"`
}

func (s *Service) Handle() http.Handler {
	opts := []handler.Option{handler.WithLogger(s.logger), handler.WithModule(ModuleName)}

	r := chi.NewRouter()
	r.Get("/employees", handler.Handle(s.headcount, opts...))
	r.Post("/employees", handler.Handle(s.hire, append(opts, handler.WithBinder(handler.BindJSON()))...))
	r.Get("/employees/{id}", handler.Handle(s.get, opts...))
	r.Delete("/employees/{id}", handler.Handle(s.terminate, opts...))
	return r
}

func (s *Service) hire(r *http.Request, req HireRequest) handler.Response {
	e, err := s.store.Hire(r.Context(), req.Name, req.Title, req.HiredOn)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.Created(e)
}

func (s *Service) headcount(r *http.Request, _ struct{}) handler.Response {
	list, err := s.store.Headcount(r.Context())
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(list, handler.WithJSONMeta(map[string]any{"headcount": len(list)}))
}

func (s *Service) get(r *http.Request, _ struct{}) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid employee id"))
	}
	e, err := s.store.Get(r.Context(), id)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(e)
}

func (s *Service) terminate(r *http.Request, _ struct{}) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid employee id"))
	}
	if err := s.store.Terminate(r.Context(), id, time.Time{}); err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(map[string]any{"id": id, "terminated": true})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidEmployee):
		return handler.BadRequest(err.Error())
	case errors.Is(err, ErrEmployeeNotFound):
		return handler.NotFound(err.Error())
	default:
		return err
	}
}
