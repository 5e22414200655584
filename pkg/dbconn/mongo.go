package dbconn

import (
	"context"

	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/bizsuite/pkg/mongo"
)

// DocumentsStore is the tenant store name for document databases.
const DocumentsStore = "documents"

// NewMongo creates a factory handing out the tenant's document database.
// It reads the DocumentsStore entry unless WithStore says otherwise.
func NewMongo(module string, cfg mongo.Config, opts ...Option) (*Factory[*mongodrv.Database], error) {
	open := func(ctx context.Context, uri string) (*mongodrv.Database, error) {
		return mongo.Open(ctx, uri, cfg)
	}
	closeFn := func(db *mongodrv.Database) error {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		return mongo.Close(ctx, db)
	}

	opts = append([]Option{WithStore(DocumentsStore)}, opts...)
	return New[*mongodrv.Database](module, open, closeFn, opts...)
}
