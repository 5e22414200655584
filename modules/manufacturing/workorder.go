package manufacturing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/bizsuite/pkg/dbconn"
)

const (
	ModuleName = "manufacturing"

	// Collection holds work orders in the tenant's document database.
	Collection = "work_orders"
)

var (
	ErrWorkOrderNotFound = errors.New("work order not found")
	ErrInvalidWorkOrder  = errors.New("invalid work order")
	ErrInvalidTransition = errors.New("work order cannot move to that status")
)

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// next lists the only status each status may move to.
var next = map[Status]Status{
	StatusPlanned:    StatusInProgress,
	StatusInProgress: StatusCompleted,
}

type Step struct {
	Name string `bson:"name" json:"name"`
	Done bool   `bson:"done" json:"done"`
}

type WorkOrder struct {
	ID        string    `bson:"_id" json:"id"`
	SKU       string    `bson:"sku" json:"sku"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	Status    Status    `bson:"status" json:"status"`
	Steps     []Step    `bson:"steps" json:"steps"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NewWorkOrder validates input and builds a planned work order.
func NewWorkOrder(sku string, qty int, steps []string, now time.Time) (WorkOrder, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" || qty <= 0 {
		return WorkOrder{}, fmt.Errorf("%w: sku and a positive quantity are required", ErrInvalidWorkOrder)
	}

	wo := WorkOrder{
		ID:        uuid.NewString(),
		SKU:       sku,
		Quantity:  qty,
		Status:    StatusPlanned,
		Steps:     make([]Step, 0, len(steps)),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			wo.Steps = append(wo.Steps, Step{Name: s})
		}
	}
	return wo, nil
}

// CanMove reports whether from -> to is allowed.
func CanMove(from, to Status) bool {
	return next[from] == to
}

// Store keeps work orders in the tenant's document store.
type Store struct {
	src dbconn.Source[*mongo.Database]
	now func() time.Time
}

func NewStore(src dbconn.Source[*mongo.Database]) *Store {
	return &Store{src: src, now: time.Now}
}

func (s *Store) collection(ctx context.Context) (*mongo.Collection, error) {
	db, err := s.src.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(Collection), nil
}

func (s *Store) Plan(ctx context.Context, sku string, qty int, steps []string) (WorkOrder, error) {
	wo, err := NewWorkOrder(sku, qty, steps, s.now())
	if err != nil {
		return WorkOrder{}, err
	}

	coll, err := s.collection(ctx)
	if err != nil {
		return WorkOrder{}, err
	}
	if _, err := coll.InsertOne(ctx, wo); err != nil {
		return WorkOrder{}, fmt.Errorf("insert work order: %w", err)
	}
	return wo, nil
}

func (s *Store) Get(ctx context.Context, id string) (WorkOrder, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return WorkOrder{}, err
	}

	var wo WorkOrder
	err = coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&wo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return WorkOrder{}, ErrWorkOrderNotFound
	}
	if err != nil {
		return WorkOrder{}, fmt.Errorf("get work order: %w", err)
	}
	return wo, nil
}

// Move advances a work order to status to. The update only matches the
// expected current status, so concurrent moves cannot skip a step.
func (s *Store) Move(ctx context.Context, id string, to Status) (WorkOrder, error) {
	var from Status
	for f, t := range next {
		if t == to {
			from = f
		}
	}
	if from == "" {
		return WorkOrder{}, fmt.Errorf("%w: %q", ErrInvalidTransition, to)
	}

	coll, err := s.collection(ctx)
	if err != nil {
		return WorkOrder{}, err
	}

	set := bson.D{
		{Key: "status", Value: to},
		{Key: "updated_at", Value: s.now().UTC()},
	}
	if to == StatusCompleted {
		set = append(set, bson.E{Key: "steps.$[].done", Value: true})
	}

	var wo WorkOrder
	err = coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: from}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&wo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return WorkOrder{}, fmt.Errorf("%w: no %s work order %s", ErrWorkOrderNotFound, from, id)
	}
	if err != nil {
		return WorkOrder{}, fmt.Errorf("move work order: %w", err)
	}
	return wo, nil
}

// ListByStatus returns work orders in status, newest first.
func (s *Store) ListByStatus(ctx context.Context, status Status, limit int64) ([]WorkOrder, error) {
	if limit <= 0 {
		limit = 100
	}

	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx,
		bson.D{{Key: "status", Value: status}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}

	var out []WorkOrder
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	return out, nil
}
