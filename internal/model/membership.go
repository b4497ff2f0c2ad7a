package model

import "time"

// Feature is a membership-gated capability.
type Feature string

const (
	FeatureTryout   Feature = "tryout"
	FeaturePractice Feature = "practice"
	FeatureCermat   Feature = "cermat"
)

// MembershipGrant is the read-only entitlement snapshot supplied by the
// membership collaborator. A quota of 0 means unlimited use.
type MembershipGrant struct {
	LearnerID       int        `json:"learner_id"`
	IsActive        bool       `json:"is_active"`
	TryoutAllowed   bool       `json:"tryout_allowed"`
	PracticeAllowed bool       `json:"practice_allowed"`
	CermatAllowed   bool       `json:"cermat_allowed"`
	TryoutQuota     int        `json:"tryout_quota"`
	TryoutUsed      int        `json:"tryout_used"`
	PracticeQuota   int        `json:"practice_quota"`
	PracticeUsed    int        `json:"practice_used"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

// Allows reports whether the grant's per-feature flag permits the feature.
func (g *MembershipGrant) Allows(f Feature) bool {
	switch f {
	case FeatureTryout:
		return g.TryoutAllowed
	case FeaturePractice:
		return g.PracticeAllowed
	case FeatureCermat:
		return g.CermatAllowed
	}
	return false
}

// Remaining returns (used, quota) for a quota-bearing feature.
// Cermat drills carry no numeric quota.
func (g *MembershipGrant) Remaining(f Feature) (used, quota int) {
	switch f {
	case FeatureTryout:
		return g.TryoutUsed, g.TryoutQuota
	case FeaturePractice:
		return g.PracticeUsed, g.PracticeQuota
	}
	return 0, 0
}
