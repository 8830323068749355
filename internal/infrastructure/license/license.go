package license

import (
	"strings"

	"AutoPublisher/internal/config"
	"AutoPublisher/internal/ports"
)

// Entitlement resolves the account tier once from configuration; the gate
// consults it on every tick but the answer is stable for the process.
type Entitlement struct {
	premium bool
	trial   bool
}

var _ ports.Entitlement = (*Entitlement)(nil)

// FromConfig derives the entitlement from the license settings. A key with no
// explicit tier counts as premium; no key at all means trial.
func FromConfig(cfg config.LicenseConfig) *Entitlement {
	tier := strings.ToLower(strings.TrimSpace(cfg.Tier))
	switch tier {
	case "premium":
		return &Entitlement{premium: true}
	case "trial":
		return &Entitlement{trial: true}
	}
	if strings.TrimSpace(cfg.Key) != "" {
		return &Entitlement{premium: true}
	}
	return &Entitlement{trial: true}
}

// IsPremium reports a paid subscription.
func (e *Entitlement) IsPremium() bool { return e.premium }

// IsTrial reports a trial subscription.
func (e *Entitlement) IsTrial() bool { return e.trial }
