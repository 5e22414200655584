package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrInvalidURI             = errors.New("invalid mongodb uri")
	ErrMissingDatabase        = errors.New("mongodb uri does not name a database")
)
