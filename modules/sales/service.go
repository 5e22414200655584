package sales

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/bizsuite/handler"
	"github.com/dmitrymomot/bizsuite/pkg/idempotency"
	"github.com/dmitrymomot/bizsuite/pkg/logger"
)

// IdempotencyHeader carries the client's key for order creation.
const IdempotencyHeader = "Idempotency-Key"

// Guard deduplicates commands per tenant. *idempotency.Guard implements it.
type Guard interface {
	Claim(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

type Service struct {
	store  *Store
	guard  Guard
	logger *slog.Logger
}

// NewService creates the sales service. A nil guard disables deduplication.
func NewService(store *Store, guard Guard, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, guard: guard, logger: log}
}

type CreateOrderRequest struct {
	Customer string `json:"customer"`
	Lines    []Line `json:"lines"`
}

func (s *Service) Handle() http.Handler {
	opts := []handler.Option{handler.WithLogger(s.logger), handler.WithModule(ModuleName)}

	r := chi.NewRouter()
	r.Post("/orders", handler.Handle(s.create, append(opts, handler.WithBinder(handler.BindJSON()))...))
	r.Get("/orders/{id}", handler.Handle(s.get, opts...))
	r.Post("/orders/{id}/confirm", handler.Handle(s.confirm, opts...))
	return r
}

func (s *Service) create(r *http.Request, req CreateOrderRequest) handler.Response {
	ctx := r.Context()

	key := r.Header.Get(IdempotencyHeader)
	if key != "" && s.guard != nil {
		if err := s.guard.Claim(ctx, key); err != nil {
			return handler.JSONError(mapError(err))
		}
	}

	o, err := s.store.Create(ctx, req.Customer, req.Lines)
	if err != nil {
		if key != "" && s.guard != nil {
			if rerr := s.guard.Release(ctx, key); rerr != nil {
				s.logger.WarnContext(ctx, "failed to release idempotency key",
					logger.Module(ModuleName),
					logger.Error(rerr))
			}
		}
		return handler.JSONError(mapError(err))
	}
	return handler.Created(o)
}

func (s *Service) get(r *http.Request, _ struct{}) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid order id"))
	}
	o, err := s.store.Get(r.Context(), id)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(o)
}

func (s *Service) confirm(r *http.Request, _ struct{}) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid order id"))
	}
	if err := s.store.Confirm(r.Context(), id); err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(map[string]any{"id": id, "status": StatusConfirmed})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidOrder), errors.Is(err, idempotency.ErrEmptyKey):
		return handler.BadRequest(err.Error())
	case errors.Is(err, ErrOrderNotFound):
		return handler.NotFound(err.Error())
	case errors.Is(err, idempotency.ErrDuplicate):
		return handler.Conflict("order with this idempotency key was already submitted")
	default:
		return err
	}
}
