package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// SignalKind tells the resolver how to interpret a signal value.
type SignalKind string

const (
	SignalSubdomain SignalKind = "subdomain"
	SignalHeader    SignalKind = "header"
	SignalID        SignalKind = "id"
)

// DefaultHeader carries an explicit tenant id on inbound requests.
const DefaultHeader = "X-Tenant-ID"

// MaxSubdomainLength keeps subdomains within a single DNS label.
const MaxSubdomainLength = 63

var subdomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Signal is the identifying information of a unit of work.
type Signal struct {
	Kind  SignalKind
	Value string
}

// SubdomainSignal builds a signal from a host label.
func SubdomainSignal(sub string) Signal {
	return Signal{Kind: SignalSubdomain, Value: sub}
}

// HeaderSignal builds a signal from a tenant id header value.
func HeaderSignal(v string) Signal {
	return Signal{Kind: SignalHeader, Value: v}
}

// IDSignal builds a signal for background orchestration, which already knows the id.
func IDSignal(id uuid.UUID) Signal {
	return Signal{Kind: SignalID, Value: id.String()}
}

// IsZero reports whether no identifier was found.
func (s Signal) IsZero() bool {
	return s.Value == ""
}

// key identifies the signal for request deduplication.
func (s Signal) key() string {
	return string(s.Kind) + ":" + s.Value
}

// tenantID parses header and id signals.
func (s Signal) tenantID() (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s.Value))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s value %q", ErrInvalidIdentifier, s.Kind, s.Value)
	}
	return id, nil
}

func (s Signal) subdomain() (string, error) {
	return NormalizeSubdomain(s.Value)
}

// NormalizeSubdomain lowercases and validates a subdomain label.
func NormalizeSubdomain(sub string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(sub))
	if len(v) > MaxSubdomainLength || !subdomainPattern.MatchString(v) {
		return "", fmt.Errorf("%w: subdomain %q", ErrInvalidIdentifier, sub)
	}
	return v, nil
}

// Extractor pulls a signal out of an inbound request.
// It returns a zero Signal when the request carries none.
type Extractor func(r *http.Request) (Signal, error)

// NewSubdomainExtractor reads the tenant label from hosts like "acme.example.com".
// baseDomain is stripped when present; the bare base domain and "www" yield no signal.
func NewSubdomainExtractor(baseDomain string) Extractor {
	baseDomain = strings.TrimPrefix(strings.ToLower(baseDomain), ".")

	return func(r *http.Request) (Signal, error) {
		host := strings.ToLower(r.Host)
		if idx := strings.LastIndex(host, ":"); idx != -1 {
			host = host[:idx]
		}

		var label string
		if baseDomain != "" {
			suffix := "." + baseDomain
			if !strings.HasSuffix(host, suffix) {
				return Signal{}, nil
			}
			parts := strings.Split(strings.TrimSuffix(host, suffix), ".")
			label = parts[0]
			if label == "www" {
				if len(parts) < 2 {
					return Signal{}, nil
				}
				label = parts[1]
			}
		} else {
			// Require subdomain.domain.tld when no base domain is configured.
			parts := strings.Split(host, ".")
			if len(parts) < 3 {
				return Signal{}, nil
			}
			label = parts[0]
			if label == "www" {
				if len(parts) < 4 {
					return Signal{}, nil
				}
				label = parts[1]
			}
		}

		if label == "" {
			return Signal{}, nil
		}

		sig := SubdomainSignal(label)
		if _, err := sig.subdomain(); err != nil {
			return Signal{}, err
		}
		return sig, nil
	}
}

// NewHeaderExtractor reads an explicit tenant id header, DefaultHeader when name is empty.
func NewHeaderExtractor(name string) Extractor {
	if name == "" {
		name = DefaultHeader
	}

	return func(r *http.Request) (Signal, error) {
		v := strings.TrimSpace(r.Header.Get(name))
		if v == "" {
			return Signal{}, nil
		}
		sig := HeaderSignal(v)
		if _, err := sig.tenantID(); err != nil {
			return Signal{}, err
		}
		return sig, nil
	}
}

// NewCompositeExtractor tries extractors in order and returns the first signal found.
// Errors are collected and only reported when no extractor produced a signal.
func NewCompositeExtractor(extractors ...Extractor) Extractor {
	return func(r *http.Request) (Signal, error) {
		var errs []error

		for _, ex := range extractors {
			sig, err := ex(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !sig.IsZero() {
				return sig, nil
			}
		}

		if len(errs) > 0 {
			return Signal{}, errors.Join(errs...)
		}

		return Signal{}, nil
	}
}
