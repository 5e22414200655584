package modules

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/bizsuite/pkg/scope"
)

// Mountable is implemented by every business module service.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions selects the business modules to mount.
// Each module is optional and only mounted if provided.
type RouterOptions struct {
	Inventory     Mountable
	CRM           Mountable
	Sales         Mountable
	HR            Mountable
	Purchase      Mountable
	Manufacturing Mountable

	// TenantRequired answers requests that reach a module without a tenant.
	// Nil uses scope.RequireTenant's default.
	TenantRequired scope.ErrorHandler
}

// Router mounts the business modules behind a tenant check. It expects
// scope.Middleware to run earlier in the chain.
//
//	r := chi.NewRouter()
//	r.Use(scope.Middleware(resolver, extractor))
//	r.Mount("/api", modules.Router(modules.RouterOptions{
//	    Inventory: inventory.NewService(store, log),
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(scope.RequireTenant(opts.TenantRequired))

	mount := map[string]Mountable{
		"/inventory":     opts.Inventory,
		"/crm":           opts.CRM,
		"/sales":         opts.Sales,
		"/hr":            opts.HR,
		"/purchase":      opts.Purchase,
		"/manufacturing": opts.Manufacturing,
	}
	for prefix, m := range mount {
		if m != nil {
			r.Mount(prefix, m.Handle())
		}
	}

	return r
}
