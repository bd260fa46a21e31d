package mongo

import (
	"testing"

	bookingrepo "turfbook/internal/bookings/repository"
	paymentrepo "turfbook/internal/payments/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func findIndex(t *testing.T, models []mongo.IndexModel, name string) mongo.IndexModel {
	t.Helper()
	for _, m := range models {
		if m.Options != nil && m.Options.Name != nil && *m.Options.Name == name {
			return m
		}
	}
	t.Fatalf("index %s not defined", name)
	return mongo.IndexModel{}
}

func TestCollections_MatchRepositories(t *testing.T) {
	defs := Collections()
	for _, name := range []string{bookingrepo.CollectionName, bookingrepo.LockCollectionName, paymentrepo.CollectionName} {
		def, ok := defs[name]
		require.True(t, ok, "missing collection %s", name)
		assert.NotEmpty(t, def.Indexes)
		assert.Contains(t, def.Validator, "$jsonSchema")
	}
}

func TestIndexes(t *testing.T) {
	tran := findIndex(t, PaymentsIndexes, "uniq_transaction")
	require.NotNil(t, tran.Options.Unique)
	assert.True(t, *tran.Options.Unique)

	ttl := findIndex(t, BookingLocksIndexes, "ttl_expires")
	require.NotNil(t, ttl.Options.ExpireAfterSeconds)
	assert.Equal(t, int32(0), *ttl.Options.ExpireAfterSeconds)

	slot := findIndex(t, BookingsIndexes, "uniq_confirmed_slot")
	require.NotNil(t, slot.Options.Unique)
	assert.True(t, *slot.Options.Unique)
	assert.NotNil(t, slot.Options.PartialFilterExpression)

	findIndex(t, BookingsIndexes, "user_created")
}
