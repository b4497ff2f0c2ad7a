package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/latihanku/latihanku-backend/internal/model"
)

// MembershipStore reads entitlement snapshots.
type MembershipStore interface {
	GetByLearner(ctx context.Context, learnerID int) (*model.MembershipGrant, error)
}

// AccessDecision is the outcome of an entitlement check. Membership is nil
// on the free-access path.
type AccessDecision struct {
	Allowed    bool
	Free       bool
	Membership *model.MembershipGrant
}

// EntitlementService is the gate every session start passes through. It
// decides allow/deny; actual quota consumption happens atomically inside
// the attempt-start transaction so concurrent starts observe it consistently.
type EntitlementService struct {
	memberships MembershipStore
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(memberships MembershipStore) *EntitlementService {
	return &EntitlementService{memberships: memberships}
}

// ResolveAccess checks whether a learner may use a feature. Free-access
// assessments pass regardless of membership state and never consume quota.
func (s *EntitlementService) ResolveAccess(ctx context.Context, learnerID int, feature model.Feature, free bool) (*AccessDecision, error) {
	if free {
		return &AccessDecision{Allowed: true, Free: true}, nil
	}

	grant, err := s.memberships.GetByLearner(ctx, learnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMembershipRequired
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}

	if !grant.IsActive || (grant.ExpiresAt != nil && grant.ExpiresAt.Before(time.Now())) {
		return nil, ErrMembershipRequired
	}
	if !grant.Allows(feature) {
		return nil, ErrFeatureNotEntitled
	}

	// Surface exhaustion before the start transaction runs so the common
	// case fails fast; the transactional consume re-checks under lock.
	used, quota := grant.Remaining(feature)
	if quota > 0 && used >= quota {
		return nil, ErrQuotaExhausted
	}

	return &AccessDecision{Allowed: true, Membership: grant}, nil
}
