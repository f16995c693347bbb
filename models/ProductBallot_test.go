package models

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newBallotTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	err = db.AutoMigrate(&Product{}, &ProductBallot{}, &Poll{}, &PollOption{}, &PollBallot{})
	if err != nil {
		t.Fatalf("Failed to migrate tables: %v", err)
	}
	return db
}

func TestCastProductVote_CounterTracksBallots(t *testing.T) {
	db := newBallotTestDB(t)

	product := Product{Name: "Boxy Tee", PriceCents: 4200, IsPublished: true}
	assert.NoError(t, db.Create(&product).Error)

	voters := []string{"203.0.113.7", "198.51.100.22", "192.0.2.55"}
	for i, voter := range voters {
		votes, err := CastProductVote(db, product.ID, voter)
		assert.NoError(t, err)
		assert.Equal(t, i+1, votes)
	}

	ballots, err := CountProductBallots(db, product.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), ballots)

	var stored Product
	assert.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 3, stored.Votes)
}

func TestCastProductVote_DuplicateIsRejected(t *testing.T) {
	db := newBallotTestDB(t)

	product := Product{Name: "Crewneck", PriceCents: 6800, IsPublished: true}
	assert.NoError(t, db.Create(&product).Error)

	_, err := CastProductVote(db, product.ID, "203.0.113.7")
	assert.NoError(t, err)

	_, err = CastProductVote(db, product.ID, "203.0.113.7")
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	// The failed attempt rolled back: counter and ballots untouched.
	var stored Product
	assert.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 1, stored.Votes)

	ballots, _ := CountProductBallots(db, product.ID)
	assert.Equal(t, int64(1), ballots)
}

func TestCastProductVote_ConcurrentSameIdentity(t *testing.T) {
	// Shared-cache memory DB so every goroutine sees the same store; one
	// connection keeps SQLite from returning busy errors under contention.
	db, err := gorm.Open(sqlite.Open("file:concurrent_votes?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Product{}, &ProductBallot{}); err != nil {
		t.Fatalf("Failed to migrate tables: %v", err)
	}

	product := Product{Name: "Contested Tee", PriceCents: 4200, IsPublished: true}
	assert.NoError(t, db.Create(&product).Error)

	const attempts = 8
	var successes, duplicates int32
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := CastProductVote(db, product.ID, "203.0.113.7")
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, ErrAlreadyVoted):
				atomic.AddInt32(&duplicates, 1)
			default:
				t.Errorf("unexpected vote error: %v", err)
			}
		}()
	}
	wg.Wait()

	// Exactly one attempt lands; every loser rolls back completely.
	assert.Equal(t, int32(1), atomic.LoadInt32(&successes))
	assert.Equal(t, int32(attempts-1), atomic.LoadInt32(&duplicates))

	var stored Product
	assert.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 1, stored.Votes)

	ballots, _ := CountProductBallots(db, product.ID)
	assert.Equal(t, int64(1), ballots)
}

func TestCastProductVote_UnknownProduct(t *testing.T) {
	db := newBallotTestDB(t)

	_, err := CastProductVote(db, 42, "203.0.113.7")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCastProductVote_SameVoterAcrossProducts(t *testing.T) {
	db := newBallotTestDB(t)

	first := Product{Name: "Tee", PriceCents: 4200, IsPublished: true}
	second := Product{Name: "Cap", PriceCents: 3500, IsPublished: true}
	assert.NoError(t, db.Create(&first).Error)
	assert.NoError(t, db.Create(&second).Error)

	// One ballot per product: the same identity may vote on each item once.
	_, err := CastProductVote(db, first.ID, "203.0.113.7")
	assert.NoError(t, err)
	_, err = CastProductVote(db, second.ID, "203.0.113.7")
	assert.NoError(t, err)

	voted, err := HasVoted(db, first.ID, "203.0.113.7")
	assert.NoError(t, err)
	assert.True(t, voted)

	voted, err = HasVoted(db, second.ID, "198.51.100.22")
	assert.NoError(t, err)
	assert.False(t, voted)
}
