package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/latihanku/latihanku-backend/internal/model"
)

// BlockRepository handles exam block data access.
type BlockRepository struct {
	pool *pgxpool.Pool
}

// NewBlockRepository creates a new BlockRepository.
func NewBlockRepository(pool *pgxpool.Pool) *BlockRepository {
	return &BlockRepository{pool: pool}
}

const blockColumns = `id, learner_id, block_type, reason, violation_count,
	unlock_code, blocked_at, resolved_at`

func scanBlock(row pgx.Row) (*model.ExamBlock, error) {
	b := &model.ExamBlock{}
	err := row.Scan(&b.ID, &b.LearnerID, &b.Type, &b.Reason, &b.ViolationCount,
		&b.UnlockCode, &b.BlockedAt, &b.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RecordViolation creates a block for (learner, type) or escalates the
// active one: count incremented, code rotated, blocked_at refreshed. A
// single upsert against the partial unique index on active blocks makes
// concurrent reports converge onto one row; a read-then-insert cannot,
// since there is no row to lock before the first commit.
func (r *BlockRepository) RecordViolation(ctx context.Context, learnerID int, btype model.BlockType, reason, code string) (*model.ExamBlock, error) {
	block, err := scanBlock(r.pool.QueryRow(ctx,
		`INSERT INTO exam_blocks (id, learner_id, block_type, reason, violation_count, unlock_code)
		 VALUES ($1, $2, $3, $4, 1, $5)
		 ON CONFLICT (learner_id, block_type) WHERE resolved_at IS NULL
		 DO UPDATE SET
		     violation_count = exam_blocks.violation_count + 1,
		     unlock_code = EXCLUDED.unlock_code,
		     reason = EXCLUDED.reason,
		     blocked_at = NOW()
		 RETURNING `+blockColumns,
		uuid.New(), learnerID, btype, reason, code))
	if err != nil {
		return nil, fmt.Errorf("upsert block: %w", err)
	}
	return block, nil
}

// GetActive returns the active block for a learner matching any of the
// given types, or pgx.ErrNoRows.
func (r *BlockRepository) GetActive(ctx context.Context, learnerID int, types []model.BlockType) (*model.ExamBlock, error) {
	return scanBlock(r.pool.QueryRow(ctx,
		`SELECT `+blockColumns+`
		 FROM exam_blocks
		 WHERE learner_id = $1 AND block_type = ANY($2) AND resolved_at IS NULL
		 ORDER BY blocked_at DESC
		 LIMIT 1`, learnerID, types))
}

// ListActiveByLearner returns all of one learner's active blocks matching
// the given types, newest first. A learner can hold one active block per
// type, so this returns at most one row per entry in types.
func (r *BlockRepository) ListActiveByLearner(ctx context.Context, learnerID int, types []model.BlockType) ([]model.ExamBlock, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+blockColumns+`
		 FROM exam_blocks
		 WHERE learner_id = $1 AND block_type = ANY($2) AND resolved_at IS NULL
		 ORDER BY blocked_at DESC`, learnerID, types)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []model.ExamBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

// ListActive returns all active blocks of the given types, newest first.
func (r *BlockRepository) ListActive(ctx context.Context, types []model.BlockType) ([]model.ExamBlock, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+blockColumns+`
		 FROM exam_blocks
		 WHERE block_type = ANY($1) AND resolved_at IS NULL
		 ORDER BY blocked_at DESC`, types)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []model.ExamBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

// GetByID retrieves a block by id.
func (r *BlockRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamBlock, error) {
	return scanBlock(r.pool.QueryRow(ctx,
		`SELECT `+blockColumns+` FROM exam_blocks WHERE id = $1`, id))
}

// Unlock resolves a block if the submitted code matches, rotating the
// stored code so the used one cannot be replayed. Returns false when the
// code did not match (the row is untouched).
func (r *BlockRepository) Unlock(ctx context.Context, blockID uuid.UUID, submitted, next string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_blocks
		 SET resolved_at = NOW(), unlock_code = $1
		 WHERE id = $2 AND unlock_code = $3 AND resolved_at IS NULL`,
		next, blockID, submitted)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Resolve closes a block unconditionally (admin override).
func (r *BlockRepository) Resolve(ctx context.Context, blockID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_blocks SET resolved_at = NOW() WHERE id = $1 AND resolved_at IS NULL`,
		blockID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetCode replaces the unlock code on an active block without touching the
// violation count (admin reissue).
func (r *BlockRepository) SetCode(ctx context.Context, blockID uuid.UUID, code string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_blocks SET unlock_code = $1 WHERE id = $2 AND resolved_at IS NULL`,
		code, blockID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
