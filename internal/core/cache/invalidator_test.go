package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyAfterCommit_RunsDetached(t *testing.T) {
	got := make(chan Scope, 1)
	inv := InvalidatorFunc(func(ctx context.Context, scope Scope) error {
		require.NoError(t, ctx.Err())
		got <- scope
		return errors.New("redis down")
	})

	ctx, cancel := context.WithCancel(context.Background())
	NotifyAfterCommit(ctx, inv, ScopeFor("owner-1", time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)))
	cancel()

	select {
	case scope := <-got:
		assert.Equal(t, "owner-1", scope.OwnerID)
		require.NotNil(t, scope.Month)
		assert.Equal(t, "2025-05", scope.Month.String())
	case <-time.After(time.Second):
		t.Fatal("invalidation was not fired")
	}
}

func TestNotifyAfterCommit_NilInvalidator(t *testing.T) {
	assert.NotPanics(t, func() {
		NotifyAfterCommit(context.Background(), nil, Scope{OwnerID: "x"})
	})
	assert.NoError(t, Noop{}.Invalidate(context.Background(), Scope{}))
}
