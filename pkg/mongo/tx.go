package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Transactor runs functions inside a MongoDB multi-document transaction.
// The callback's context carries the session; collection operations made
// with it join the transaction. Aborted transactions surface the callback's
// error and leave no partial writes.
type Transactor struct {
	client *mongo.Client
}

// NewTransactor creates a Transactor over the given client. Requires a
// replica set or sharded deployment; standalone servers do not support
// transactions.
func NewTransactor(client *mongo.Client) *Transactor {
	return &Transactor{client: client}
}

// InTx executes fn inside one transaction, committing on nil and aborting
// on error.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}
