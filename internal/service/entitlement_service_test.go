package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/latihanku/latihanku-backend/internal/model"
)

type fakeMembershipStore struct {
	grants map[int]*model.MembershipGrant
}

func (f *fakeMembershipStore) GetByLearner(_ context.Context, learnerID int) (*model.MembershipGrant, error) {
	g, ok := f.grants[learnerID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return g, nil
}

func activeGrant(learnerID int) *model.MembershipGrant {
	return &model.MembershipGrant{
		LearnerID:       learnerID,
		IsActive:        true,
		TryoutAllowed:   true,
		PracticeAllowed: true,
		CermatAllowed:   true,
		TryoutQuota:     3,
	}
}

func TestResolveAccessFreeBypassesMembership(t *testing.T) {
	svc := NewEntitlementService(&fakeMembershipStore{grants: map[int]*model.MembershipGrant{}})

	decision, err := svc.ResolveAccess(context.Background(), 1, model.FeatureTryout, true)
	if err != nil {
		t.Fatalf("ResolveAccess() error = %v", err)
	}
	if !decision.Allowed || !decision.Free {
		t.Errorf("decision = %+v, want allowed free access", decision)
	}
}

func TestResolveAccessNoMembership(t *testing.T) {
	svc := NewEntitlementService(&fakeMembershipStore{grants: map[int]*model.MembershipGrant{}})

	_, err := svc.ResolveAccess(context.Background(), 1, model.FeatureTryout, false)
	if !errors.Is(err, ErrMembershipRequired) {
		t.Errorf("error = %v, want ErrMembershipRequired", err)
	}
}

func TestResolveAccessExpiredMembership(t *testing.T) {
	grant := activeGrant(1)
	expired := time.Now().Add(-time.Hour)
	grant.ExpiresAt = &expired

	svc := NewEntitlementService(&fakeMembershipStore{grants: map[int]*model.MembershipGrant{1: grant}})

	_, err := svc.ResolveAccess(context.Background(), 1, model.FeatureTryout, false)
	if !errors.Is(err, ErrMembershipRequired) {
		t.Errorf("error = %v, want ErrMembershipRequired", err)
	}
}

func TestResolveAccessFeatureNotEntitled(t *testing.T) {
	grant := activeGrant(1)
	grant.CermatAllowed = false

	svc := NewEntitlementService(&fakeMembershipStore{grants: map[int]*model.MembershipGrant{1: grant}})

	_, err := svc.ResolveAccess(context.Background(), 1, model.FeatureCermat, false)
	if !errors.Is(err, ErrFeatureNotEntitled) {
		t.Errorf("error = %v, want ErrFeatureNotEntitled", err)
	}
}

func TestResolveAccessQuotaExhausted(t *testing.T) {
	grant := activeGrant(1)
	grant.TryoutQuota = 2
	grant.TryoutUsed = 2

	svc := NewEntitlementService(&fakeMembershipStore{grants: map[int]*model.MembershipGrant{1: grant}})

	_, err := svc.ResolveAccess(context.Background(), 1, model.FeatureTryout, false)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("error = %v, want ErrQuotaExhausted", err)
	}
}

func TestResolveAccessZeroQuotaMeansUnlimited(t *testing.T) {
	grant := activeGrant(1)
	grant.TryoutQuota = 0
	grant.TryoutUsed = 999

	svc := NewEntitlementService(&fakeMembershipStore{grants: map[int]*model.MembershipGrant{1: grant}})

	decision, err := svc.ResolveAccess(context.Background(), 1, model.FeatureTryout, false)
	if err != nil {
		t.Fatalf("ResolveAccess() error = %v", err)
	}
	if !decision.Allowed || decision.Free {
		t.Errorf("decision = %+v, want allowed paid access", decision)
	}
}
