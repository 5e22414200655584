package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/bizsuite/handler"
)

// Service exposes products over HTTP.
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

type CreateProductRequest struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

// Handle mounts the product routes.
func (s *Service) Handle() http.Handler {
	opts := []handler.Option{handler.WithLogger(s.logger), handler.WithModule(ModuleName)}
	bound := append([]handler.Option{handler.WithBinder(handler.BindJSON())}, opts...)

	r := chi.NewRouter()
	r.Get("/products", handler.Handle(s.list, opts...))
	r.Post("/products", handler.Handle(s.create, bound...))
	r.Get("/products/{id}", handler.Handle(s.get, opts...))
	r.Post("/products/{id}/stock", handler.Handle(s.adjust, bound...))
	return r
}

func (s *Service) create(r *http.Request, req CreateProductRequest) handler.Response {
	p, err := s.store.Create(r.Context(), req.SKU, req.Name, req.Quantity)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.Created(p)
}

func (s *Service) list(r *http.Request, _ struct{}) handler.Response {
	maxQty := -1
	if v := r.URL.Query().Get("max_quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return handler.JSONError(handler.BadRequest("max_quantity must be a non-negative integer"))
		}
		maxQty = n
	}

	products, err := s.store.List(r.Context(), maxQty)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(products, handler.WithJSONMeta(map[string]any{"count": len(products)}))
}

func (s *Service) get(r *http.Request, _ struct{}) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid product id"))
	}
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(p)
}

func (s *Service) adjust(r *http.Request, req AdjustStockRequest) handler.Response {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return handler.JSONError(handler.BadRequest("invalid product id"))
	}
	qty, err := s.store.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		return handler.JSONError(mapError(err))
	}
	return handler.JSON(map[string]any{"id": id, "quantity": qty})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidProduct):
		return handler.BadRequest(err.Error())
	case errors.Is(err, ErrProductNotFound):
		return handler.NotFound(err.Error())
	case errors.Is(err, ErrDuplicateSKU):
		return handler.Conflict(err.Error())
	default:
		return err
	}
}
