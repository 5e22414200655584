package secrets

import "errors"

var (
	ErrInvalidKey        = errors.New("invalid seal key: must decode to 32 bytes")
	ErrSealFailed        = errors.New("failed to seal secret")
	ErrOpenFailed        = errors.New("failed to open sealed secret")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrKeyDerivation     = errors.New("key derivation failed")

	ErrBackendNotConfigured = errors.New("no backend configured for secret reference")
	ErrSecretNotFound       = errors.New("secret not found")
	ErrSecretUnreadable     = errors.New("secret has no readable value")
)
