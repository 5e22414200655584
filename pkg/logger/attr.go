package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups non-nil errors under "errors". All-nil input yields an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". A nil err yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant identifier under "tenant_id".
// Nil values and zero UUIDs yield an empty Attr.
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	if s, ok := id.(interface{ String() string }); ok {
		v := s.String()
		if v == "" || v == "00000000-0000-0000-0000-000000000000" {
			return slog.Attr{}
		}
		return slog.String("tenant_id", v)
	}
	return slog.Any("tenant_id", id)
}

// ScopeID records the unit-of-work identifier under "scope_id".
func ScopeID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("scope_id", id)
}

// RequestID records the request identifier under "request_id".
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Module records the business module name under "module".
func Module(name string) slog.Attr {
	return slog.String("module", name)
}

// Store records the named tenant store under "store".
func Store(name string) slog.Attr {
	if name == "" {
		name = "primary"
	}
	return slog.String("store", name)
}

// Job records the background job name under "job".
func Job(name string) slog.Attr {
	return slog.String("job", name)
}

// Attempt records a 1-based retry attempt under "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the emitting component under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}
