package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"bookstore/internal/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_EnqueueFetchMarkSent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Pool(t))

	id1, err := store.Enqueue(ctx, Message{Topic: "bookstore.orders", Key: "order-1", Payload: map[string]string{"ref": "BK-AAAA0001"}})
	require.NoError(t, err)
	assert.NotEmpty(t, id1)
	_, err = store.Enqueue(ctx, Message{EventID: "7f9c24e2-8b4a-4d1e-9a53-0d6b1c7e2f10", Topic: "bookstore.orders", Key: "order-2", Payload: 2})
	require.NoError(t, err)

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, id1, pending[0].EventID)
	assert.Equal(t, "7f9c24e2-8b4a-4d1e-9a53-0d6b1c7e2f10", pending[1].EventID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(pending[0].Payload, &payload))
	assert.Equal(t, "BK-AAAA0001", payload["ref"])

	require.NoError(t, store.MarkSent(ctx, pending[0].ID))
	pending, err = store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "order-2", pending[0].Key)
}
