package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInTxWithoutTransactionsCallsFn(t *testing.T) {
	runner := NewTxRunner(nil, true)

	calls := 0
	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRunInTxPropagatesError(t *testing.T) {
	runner := NewTxRunner(nil, false)
	boom := errors.New("boom")

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestNilRunner(t *testing.T) {
	var runner *TxRunner
	require.NoError(t, runner.RunInTx(context.Background(), func(context.Context) error { return nil }))
}
