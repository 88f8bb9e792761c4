package quota

import (
	"time"

	"github.com/Sdiabate1337/reput/internal/models"
)

// Feature names an automation capability that plans may or may not
// include.
type Feature string

const (
	FeatureAutoReply     Feature = "auto_reply"
	FeatureTranscription Feature = "transcription"
)

// Gate answers advisory plan questions before any automated send. A
// refusal is a silent no-op for the caller, never an error.
type Gate struct {
	startupFeatures map[Feature]bool
	now             func() time.Time
}

func NewGate(startupFeatures []Feature) *Gate {
	allowed := make(map[Feature]bool, len(startupFeatures))
	for _, f := range startupFeatures {
		allowed[f] = true
	}
	return &Gate{
		startupFeatures: allowed,
		now:             time.Now,
	}
}

// CanSend reports whether the tenant has outbound quota left.
// Enterprise tenants are always unbounded.
func (g *Gate) CanSend(t *models.Tenant) bool {
	if t.Plan == models.PlanEnterprise {
		return true
	}
	return t.QuotaUsed < t.QuotaLimit
}

// CanUseAutomation reports whether the tenant's plan includes the
// feature: paid plans with an active subscription and tenants inside
// their trial window get everything, otherwise the startup allow-list
// decides.
func (g *Gate) CanUseAutomation(t *models.Tenant, feature Feature) bool {
	paid := t.Plan == models.PlanPro || t.Plan == models.PlanEnterprise
	if paid && t.Subscription == models.SubscriptionActive {
		return true
	}
	if t.Subscription == models.SubscriptionTrial && g.now().Before(t.TrialEndsAt) {
		return true
	}
	return g.startupFeatures[feature]
}
