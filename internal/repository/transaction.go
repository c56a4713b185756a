package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when a lookup by id matches no document.
var ErrNotFound = errors.New("not found")

// Transactor runs fn so that every repository call made with the context it
// receives commits or aborts as one unit.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTransactor runs callbacks inside a MongoDB session transaction.
// Transactions need a replica set or sharded cluster.
type MongoTransactor struct {
	client *mongo.Client
}

// NewTransactor creates a MongoTransactor for the database's client.
func NewTransactor(db *mongo.Database) *MongoTransactor {
	return &MongoTransactor{client: db.Client()}
}

// WithTransaction implements Transactor. The driver may call fn more than
// once on transient errors, so fn must not keep state between attempts.
func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
