package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// ErrMatchNotFound is returned when a match lookup yields no results.
var ErrMatchNotFound = errors.New("match not found")

// MatchRepository stores match snapshots: one matches row plus one jsonb
// record per character slot.
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a MatchRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Save upserts snap, replacing any character records stored for its id.
//
// Postcondition: Load(snap.ID) returns a snapshot equal to snap.
func (r *MatchRepository) Save(ctx context.Context, snap combat.MatchSnapshot) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO matches (id, next_side, turn, phase, winner)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				next_side  = EXCLUDED.next_side,
				turn       = EXCLUDED.turn,
				phase      = EXCLUDED.phase,
				winner     = EXCLUDED.winner,
				updated_at = NOW()`,
			snap.ID, int16(snap.Next), snap.Turn, snap.Phase.String(), int16(snap.Winner),
		)
		if err != nil {
			return fmt.Errorf("upserting match %s: %w", snap.ID, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM match_characters WHERE match_id = $1`, snap.ID); err != nil {
			return fmt.Errorf("clearing characters of match %s: %w", snap.ID, err)
		}

		batch := &pgx.Batch{}
		for side, records := range snap.Teams {
			for slot, rec := range records {
				batch.Queue(`
					INSERT INTO match_characters (match_id, side, slot, record)
					VALUES ($1, $2, $3, $4)`,
					snap.ID, int16(side), int16(slot), rec,
				)
			}
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting characters of match %s: %w", snap.ID, err)
		}
		return nil
	})
}

// Load returns the stored snapshot for id.
//
// Postcondition: Returns ErrMatchNotFound if no match has that id.
func (r *MatchRepository) Load(ctx context.Context, id uuid.UUID) (combat.MatchSnapshot, error) {
	snap := combat.MatchSnapshot{ID: id}
	var next, winner int16
	var phase string
	err := r.db.QueryRow(ctx, `
		SELECT next_side, turn, phase, winner FROM matches WHERE id = $1`, id,
	).Scan(&next, &snap.Turn, &phase, &winner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return combat.MatchSnapshot{}, ErrMatchNotFound
		}
		return combat.MatchSnapshot{}, fmt.Errorf("loading match %s: %w", id, err)
	}
	snap.Next, snap.Winner = combat.Side(next), combat.Side(winner)
	if snap.Phase, err = combat.ParsePhase(phase); err != nil {
		return combat.MatchSnapshot{}, fmt.Errorf("loading match %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT side, slot, record FROM match_characters
		WHERE match_id = $1 ORDER BY side, slot`, id,
	)
	if err != nil {
		return combat.MatchSnapshot{}, fmt.Errorf("loading characters of match %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var side, slot int16
		var rec god.Record
		if err := rows.Scan(&side, &slot, &rec); err != nil {
			return combat.MatchSnapshot{}, fmt.Errorf("scanning character of match %s: %w", id, err)
		}
		s := combat.Side(side)
		if !s.Valid() || int(slot) != len(snap.Teams[s]) {
			return combat.MatchSnapshot{}, fmt.Errorf("match %s: unexpected slot %d on side %s", id, slot, s)
		}
		if rec.Effects == nil {
			rec.Effects = []god.EffectRecord{}
		}
		snap.Teams[s] = append(snap.Teams[s], rec)
	}
	if err := rows.Err(); err != nil {
		return combat.MatchSnapshot{}, fmt.Errorf("iterating characters of match %s: %w", id, err)
	}
	return snap, nil
}

// Delete removes the match and its character records.
//
// Postcondition: Returns ErrMatchNotFound if no match has that id.
func (r *MatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting match %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// ListResumable returns the ids of saved matches waiting for an attacker,
// most recently updated first.
func (r *MatchRepository) ListResumable(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM matches WHERE phase = $1
		ORDER BY updated_at DESC LIMIT $2`,
		combat.PhaseAwaitAttacker.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing resumable matches: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("listing resumable matches: %w", err)
	}
	return ids, nil
}
