package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// LongTermStore persists per-user accumulated profiles in Postgres as JSONB,
// updated with atomic increment (query count, per-area frequency) and
// array-union (distinct legal areas touched) semantics inside a single
// transaction per write.
type LongTermStore struct {
	pool *pgxpool.Pool
}

// NewLongTermStore creates a LongTermStore.
func NewLongTermStore(pool *pgxpool.Pool) *LongTermStore {
	return &LongTermStore{pool: pool}
}

// Get returns userID's profile, or a freshly initialized one if none exists
// yet.
func (s *LongTermStore) Get(ctx context.Context, userID string) (model.LongTermProfile, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile FROM long_term_profiles WHERE user_id = $1`, userID,
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return model.DefaultLongTermProfile(userID), nil
	}
	if err != nil {
		return model.LongTermProfile{}, fmt.Errorf("memory.LongTermStore.Get: %w", err)
	}

	var profile model.LongTermProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return model.LongTermProfile{}, fmt.Errorf("memory.LongTermStore.Get: decode: %w", err)
	}
	return profile, nil
}

// RecordQuery applies one query's observed legal area and complexity to
// userID's profile: increments the query count and the area's frequency,
// unions the area into the legal-areas list if new, and updates the typical
// complexity to the most recently observed value. The read-modify-write
// happens inside a transaction so concurrent requests for the same user
// never lose an increment.
func (s *LongTermStore) RecordQuery(ctx context.Context, userID, legalArea string, complexity model.Complexity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("memory.LongTermStore.RecordQuery: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT profile FROM long_term_profiles WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&raw)

	var profile model.LongTermProfile
	switch err {
	case nil:
		if err := json.Unmarshal(raw, &profile); err != nil {
			return fmt.Errorf("memory.LongTermStore.RecordQuery: decode: %w", err)
		}
	case pgx.ErrNoRows:
		profile = model.DefaultLongTermProfile(userID)
	default:
		return fmt.Errorf("memory.LongTermStore.RecordQuery: select: %w", err)
	}

	profile.QueryCount++
	if profile.LegalAreaFreq == nil {
		profile.LegalAreaFreq = map[string]int64{}
	}
	if legalArea != "" {
		profile.LegalAreaFreq[legalArea]++
		profile.LegalAreas = appendUnique(profile.LegalAreas, legalArea)
	}
	profile.TypicalComplexity = complexity
	if profile.IsReturningUser() {
		profile.Expertise = model.UserProfessional
	}

	updatedRaw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("memory.LongTermStore.RecordQuery: marshal: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO long_term_profiles (user_id, profile, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = now()`,
		userID, updatedRaw)
	if err != nil {
		return fmt.Errorf("memory.LongTermStore.RecordQuery: upsert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("memory.LongTermStore.RecordQuery: commit: %w", err)
	}
	return nil
}

// appendUnique appends value to list if not already present.
func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
