// Package secrets reveals tenant connection strings stored as references.
//
// Registry rows may hold a plain connection string or a reference:
//
//	sealed:<base64>           encrypted with the platform seal key (XChaCha20-Poly1305)
//	aws-sm:<secret-id>        SecretString of an AWS Secrets Manager secret
//	aws-sm:<secret-id>#<key>  one field of a JSON secret
//
// Revealer picks the backend by prefix and satisfies tenant.SecretRevealer, so
// the resolver caches only revealed values. The seal key is derived from
// SECRETS_SEAL_KEY with HKDF-SHA-256.
package secrets
