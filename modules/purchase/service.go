package purchase

import (
	"errors"
	"log/slog"
	"net/http"

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

type CreatePurchaseOrderRequest struct {
	Supplier string `json:"supplier"`
	Lines    []Line `json:"lines"`
}

func (s *Service) Handle() http.Handler {
	opts := []handler.Option{handler.WithLogger(s.logger), handler.WithModule(ModuleName)}

	r := chi.NewRouter()
	r.Get("/orders", handler.Handle(s.open, opts...))
	r.Post("/orders", handler.Handle(s.create, append(opts, handler.WithBinder(handler.BindJSON()))...))
	r.Post("/orders/{id}/receive", handler.Handle(s.receive, opts...))
	return r
}

func (s *Service) create(r *http.Request, req CreatePurchaseOrderRequest) handler.Response {
	po, err := s.store.Create(r.Context(), req.Supplier, req.Lines)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.Created(po)
}

func (s *Service) open(r *http.Request, _ struct{}) handler.Response {
	list, err := s.store.Open(r.Context())
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(list)
}

func (s *Service) receive(r *http.Request, _ struct{}) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid purchase order id"))
	}
	at, err := s.store.Receive(r.Context(), id)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(map[string]any{"id": id, "received_at": at})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPurchaseOrder):
		return handler.BadRequest(err.Error())
	case errors.Is(err, ErrPurchaseOrderNotFound):
		return handler.NotFound(err.Error())
	default:
		return err
	}
}
