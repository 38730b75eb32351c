package authorize

import (
	"log/slog"

	casbin "github.com/casbin/casbin/v2"
)

// DefaultPolicies lets staff read and manage clinic appointments and lets
// patients read the public catalog. Admin bypasses enforcement.
func DefaultPolicies() []PermissionPolicy {
	return []PermissionPolicy{
		{RoleStaff, DomainSys, ResourceAppointments, ActionRead, EffectAllow},
		{RoleStaff, DomainSys, ResourceAppointments, ActionWrite, EffectAllow},
		{RoleStaff, DomainSys, ResourceCatalog, ActionRead, EffectAllow},
		{RoleStaff, DomainSys, ResourceDiscounts, ActionRead, EffectAllow},

		{RolePatient, DomainSys, ResourceCatalog, ActionRead, EffectAllow},
	}
}

// SeedDefaultPolicies adds DefaultPolicies when the enforcer holds no p rows.
func SeedDefaultPolicies(e *casbin.DistributedEnforcer) error {
	if len(e.GetModel()["p"]["p"].Policy) > 0 {
		return nil
	}

	rules := make([][]string, 0, len(DefaultPolicies()))
	for _, p := range DefaultPolicies() {
		rules = append(rules, []string{string(p.Subject), string(p.Domain), string(p.Object), string(p.Action), string(p.Effect)})
	}
	// AddPoliciesSelf skips the adapter and the watcher.
	if _, err := e.AddPoliciesSelf(nil, "p", "p", rules); err != nil {
		return err
	}
	slog.Info("casbin default policies loaded", "count", len(rules))
	return nil
}
