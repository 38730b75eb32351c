package authorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	casbin "github.com/casbin/casbin/v2"

	"github.com/Alijeyrad/simorq_booking/pkg/reqctx"
)

// writePolicy writes a CSV policy file and returns its path.
func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
	return path
}

func createTestEnforcer(t *testing.T, policy string) *casbin.DistributedEnforcer {
	t.Helper()
	e, cleanup, err := NewEnforcer("", writePolicy(t, policy), 0)
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}
	t.Cleanup(func() { cleanup(context.Background()) })
	return e
}

func TestNewAuthorization(t *testing.T) {
	t.Run("returns error for nil enforcer", func(t *testing.T) {
		_, err := NewAuthorization(nil)
		if err == nil {
			t.Error("Expected error for nil enforcer")
		}
	})

	t.Run("succeeds with valid enforcer", func(t *testing.T) {
		auth, err := NewAuthorization(createTestEnforcer(t, ""))
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if auth == nil {
			t.Error("Expected non-nil authorization")
		}
	})
}

func TestEnforce_DefaultPolicies(t *testing.T) {
	auth, _ := NewAuthorization(createTestEnforcer(t, ""))
	ctx := context.Background()

	tests := []struct {
		name     string
		subject  GroupSubject
		domain   Domain
		resource Resource
		action   Action
		want     bool
		wantErr  bool
	}{
		{"staff reads appointments", GroupSubject(RoleStaff), DomainSys, ResourceAppointments, ActionRead, true, false},
		{"staff writes appointments", GroupSubject(RoleStaff), DomainSys, ResourceAppointments, ActionWrite, true, false},
		{"patient cannot read clinic appointments", GroupSubject(RolePatient), DomainSys, ResourceAppointments, ActionRead, false, false},
		{"patient reads catalog", GroupSubject(RolePatient), DomainSys, ResourceCatalog, ActionRead, true, false},
		{"unknown account is denied", GroupSubject("patient-1"), DomainSys, ResourceAppointments, ActionRead, false, false},
		{"admin bypasses", GroupSubject(RoleAdmin), DomainSys, ResourceDiscounts, ActionWrite, true, false},
		{"error for empty subject", "", DomainSys, ResourceAppointments, ActionRead, false, true},
		{"error for invalid domain", GroupSubject(RoleStaff), Domain("clinic:x"), ResourceAppointments, ActionRead, false, true},
		{"error for wildcard domain", GroupSubject(RoleStaff), WildcardDomain, ResourceAppointments, ActionRead, false, true},
		{"error for unknown resource", GroupSubject(RoleStaff), DomainSys, Resource("wallet"), ActionRead, false, true},
		{"error for unknown action", GroupSubject(RoleStaff), DomainSys, ResourceAppointments, Action("delete"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.resource, tt.action)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgs) {
					t.Errorf("Expected ErrInvalidArgs, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforce_PolicyFileGrants(t *testing.T) {
	policy := `p, role:staff, sys, appointments, read, allow
g, staff-42, role:staff, sys
g, owner-1, role:admin, sys
`
	auth, _ := NewAuthorization(createTestEnforcer(t, policy))
	ctx := context.Background()

	if err := auth.MustEnforce(ctx, "staff-42", DomainSys, ResourceAppointments, ActionRead); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	// a policy file with p rows replaces the defaults
	if err := auth.MustEnforce(ctx, "staff-42", DomainSys, ResourceAppointments, ActionWrite); err != ErrForbidden {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}

	if err := auth.MustEnforce(ctx, "owner-1", DomainSys, ResourceAppointments, ActionWrite); err != nil {
		t.Errorf("Expected admin grant to bypass, got %v", err)
	}

	roles, err := auth.GetRolesForUserInDomain(ctx, "staff-42", DomainSys)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(roles) != 1 || roles[0] != RoleStaff {
		t.Errorf("Expected [%s], got %v", RoleStaff, roles)
	}
}

func TestEnforce_DenyWins(t *testing.T) {
	policy := `p, role:staff, sys, appointments, *, allow
p, suspended-7, sys, appointments, write, deny
g, suspended-7, role:staff, sys
`
	auth, _ := NewAuthorization(createTestEnforcer(t, policy))
	ctx := context.Background()

	if err := auth.MustEnforce(ctx, "suspended-7", DomainSys, ResourceAppointments, ActionRead); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := auth.MustEnforce(ctx, "suspended-7", DomainSys, ResourceAppointments, ActionWrite); err != ErrForbidden {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestNewEnforcer_WithoutPolicyFile(t *testing.T) {
	e, cleanup, err := NewEnforcer("", "", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer cleanup(context.Background())

	if got := len(e.GetModel()["p"]["p"].Policy); got != len(DefaultPolicies()) {
		t.Errorf("Expected %d default rules, got %d", len(DefaultPolicies()), got)
	}
	if !IsPolicyHealthy() {
		t.Error("Expected policy to be healthy")
	}
}

type testClaims struct {
	sub, role string
}

func (c testClaims) GetSubject() string   { return c.sub }
func (c testClaims) GetRole() string      { return c.role }
func (c testClaims) GetSessionID() string { return "" }
func (c testClaims) IsExpired() bool      { return false }

func TestEnforceAny(t *testing.T) {
	auth, _ := NewAuthorization(createTestEnforcer(t, ""))

	t.Run("no claims", func(t *testing.T) {
		err := EnforceAny(context.Background(), auth, DomainSys, ResourceAppointments, ActionRead)
		if err != ErrNoSubjectInContext {
			t.Errorf("Expected ErrNoSubjectInContext, got %v", err)
		}
	})

	t.Run("role claim grants access", func(t *testing.T) {
		ctx := reqctx.WithClaims(context.Background(), testClaims{sub: "staff-1", role: "staff"})
		if err := EnforceAny(ctx, auth, DomainSys, ResourceAppointments, ActionWrite); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("patient is forbidden", func(t *testing.T) {
		ctx := reqctx.WithClaims(context.Background(), testClaims{sub: "patient-1", role: "patient"})
		if err := EnforceAny(ctx, auth, DomainSys, ResourceAppointments, ActionRead); err != ErrForbidden {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})
}

func TestRoleFromClaim(t *testing.T) {
	tests := map[string]Role{
		"staff":      RoleStaff,
		" Staff ":    RoleStaff,
		"role:admin": RoleAdmin,
		"":           "",
	}
	for in, want := range tests {
		if got := RoleFromClaim(in); got != want {
			t.Errorf("RoleFromClaim(%q) = %q, want %q", in, got, want)
		}
	}
}
