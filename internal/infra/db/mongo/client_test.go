package mongo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainlistings "spacio/internal/domain/listings"
)

func TestIsWriteConflict(t *testing.T) {
	assert.False(t, isWriteConflict(nil))
	assert.False(t, isWriteConflict(errors.New("network")))
	assert.True(t, isWriteConflict(mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}))
	assert.True(t, isWriteConflict(fmt.Errorf("commit: %w", mongo.CommandError{Code: 251, Labels: []string{transientTxnLabel}})))
	assert.True(t, isWriteConflict(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}))
}

func TestTimestamps(t *testing.T) {
	assert.Nil(t, optionalTimestamp(nil))
	assert.Nil(t, optionalTime(nil))

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ms := optionalTimestamp(&at)
	if assert.NotNil(t, ms) {
		assert.True(t, at.Equal(*optionalTime(ms)))
		assert.True(t, at.Equal(timestampToTime(*ms)))
	}
}

func TestSearchFilter(t *testing.T) {
	opts := domainlistings.SearchParams{ZipCode: " 95112 ", Size: "m", PriceMinCents: 5000, PriceMaxCents: 12000}.Normalized()

	assert.Equal(t, bson.M{
		"zip_code":     "95112",
		"size":         "M",
		"price.amount": bson.M{"$gte": int64(5000), "$lte": int64(12000)},
	}, searchFilter(opts))
	assert.Empty(t, searchFilter(domainlistings.SearchParams{}.Normalized()))
}

func TestSearchOptions(t *testing.T) {
	found := searchOptions(domainlistings.SearchParams{}.Normalized())

	if assert.NotNil(t, found.Limit) {
		assert.Equal(t, int64(100), *found.Limit)
	}
	assert.Equal(t, bson.D{{Key: "rating", Value: -1}, {Key: "created_at", Value: -1}}, found.Sort)
}
