package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/latihanku/latihanku-backend/internal/model"
)

// MembershipRepository reads the entitlement snapshots maintained by the
// external membership collaborator. Quota consumption lives inside the
// attempt-start transaction (see AttemptRepository.Start).
type MembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository creates a new MembershipRepository.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

// GetByLearner retrieves a learner's grant, or pgx.ErrNoRows when the
// learner has never held a membership.
func (r *MembershipRepository) GetByLearner(ctx context.Context, learnerID int) (*model.MembershipGrant, error) {
	g := &model.MembershipGrant{}
	err := r.pool.QueryRow(ctx,
		`SELECT learner_id, is_active, tryout_allowed, practice_allowed, cermat_allowed,
		        tryout_quota, tryout_used, practice_quota, practice_used, expires_at
		 FROM membership_grants
		 WHERE learner_id = $1`, learnerID,
	).Scan(&g.LearnerID, &g.IsActive, &g.TryoutAllowed, &g.PracticeAllowed, &g.CermatAllowed,
		&g.TryoutQuota, &g.TryoutUsed, &g.PracticeQuota, &g.PracticeUsed, &g.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}
