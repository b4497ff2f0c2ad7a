package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/latihanku/latihanku-backend/internal/model"
)

// LearnerRepository handles learner account rows. Account lifecycle is owned
// by the external auth collaborator; this repository backs admin reporting
// and the seed CLI.
type LearnerRepository struct {
	pool *pgxpool.Pool
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(pool *pgxpool.Pool) *LearnerRepository {
	return &LearnerRepository{pool: pool}
}

// GetByID retrieves a learner by id.
func (r *LearnerRepository) GetByID(ctx context.Context, id int) (*model.Learner, error) {
	l := &model.Learner{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at FROM learners WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Email, &l.PasswordHash, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create inserts a learner, ignoring duplicates on email.
func (r *LearnerRepository) Create(ctx context.Context, l *model.Learner) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO learners (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, created_at`,
		l.Name, l.Email, l.PasswordHash,
	).Scan(&l.ID, &l.CreatedAt)
}
