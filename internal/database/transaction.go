package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner runs fn inside a multi-document transaction when the deployment
// supports it. With transactions disabled fn runs directly.
type TxRunner struct {
	client  *mongo.Client
	enabled bool
}

func NewTxRunner(client *mongo.Client, enabled bool) *TxRunner {
	return &TxRunner{client: client, enabled: enabled}
}

// RunInTx executes fn. Store calls inside fn must use the context it receives.
func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t == nil || !t.enabled || t.client == nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	return nil
}
