package crm

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

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

type CreateContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

func (s *Service) Handle() http.Handler {
	opts := []handler.Option{handler.WithLogger(s.logger), handler.WithModule(ModuleName)}

	r := chi.NewRouter()
	r.Get("/contacts", handler.Handle(s.search, opts...))
	r.Post("/contacts", handler.Handle(s.create, append(opts, handler.WithBinder(handler.BindJSON()))...))
	r.Get("/contacts/{id}", handler.Handle(s.get, opts...))
	r.Delete("/contacts/{id}", handler.Handle(s.delete, opts...))
	return r
}

func (s *Service) create(r *http.Request, req CreateContactRequest) handler.Response {
	c, err := s.store.Create(r.Context(), req.Name, req.Email, req.Company)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.Created(c)
}

func (s *Service) search(r *http.Request, _ struct{}) handler.Response {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	contacts, err := s.store.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(contacts)
}

func (s *Service) get(r *http.Request, _ struct{}) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid contact id"))
	}
	c, err := s.store.Get(r.Context(), id)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(c)
}

func (s *Service) delete(r *http.Request, _ struct{}) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid contact id"))
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(map[string]any{"id": id, "deleted": true})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidContact):
		return handler.BadRequest(err.Error())
	case errors.Is(err, ErrContactNotFound):
		return handler.NotFound(err.Error())
	case errors.Is(err, ErrDuplicateEmail):
		return handler.Conflict(err.Error())
	default:
		return err
	}
}
