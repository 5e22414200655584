package manufacturing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

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

type PlanRequest struct {
	SKU      string   `json:"sku"`
	Quantity int      `json:"quantity"`
	Steps    []string `json:"steps"`
}

type MoveRequest struct {
	Status Status `json:"status"`
}

func (s *Service) Handle() http.Handler {
	opts := []handler.Option{handler.WithLogger(s.logger), handler.WithModule(ModuleName)}
	bound := append([]handler.Option{handler.WithBinder(handler.BindJSON())}, opts...)

	r := chi.NewRouter()
	r.Get("/work-orders", handler.Handle(s.list, opts...))
	r.Post("/work-orders", handler.Handle(s.plan, bound...))
	r.Get("/work-orders/{id}", handler.Handle(s.get, opts...))
	r.Post("/work-orders/{id}/status", handler.Handle(s.move, bound...))
	return r
}

func (s *Service) plan(r *http.Request, req PlanRequest) handler.Response {
	wo, err := s.store.Plan(r.Context(), req.SKU, req.Quantity, req.Steps)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.Created(wo)
}

func (s *Service) list(r *http.Request, _ struct{}) handler.Response {
	status := Status(r.URL.Query().Get("status"))
	if status == "" {
		status = StatusPlanned
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	list, err := s.store.ListByStatus(r.Context(), status, limit)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(list)
}

func (s *Service) get(r *http.Request, _ struct{}) handler.Response {
	wo, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(wo)
}

func (s *Service) move(r *http.Request, req MoveRequest) handler.Response {
	wo, err := s.store.Move(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(wo)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidWorkOrder), errors.Is(err, ErrInvalidTransition):
		return handler.BadRequest(err.Error())
	case errors.Is(err, ErrWorkOrderNotFound):
		return handler.NotFound(err.Error())
	default:
		return err
	}
}
