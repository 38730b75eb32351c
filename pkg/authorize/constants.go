package authorize

import "strings"

type Action string
type Resource string
type Role string
type Domain string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionRead:  {},
	ActionWrite: {},
}

const (
	ResourceAppointments Resource = "appointments"
	ResourceCatalog      Resource = "catalog"
	ResourceDiscounts    Resource = "discounts"

	WildcardResource Resource = "*"
)

var KnownResources = map[Resource]struct{}{
	ResourceAppointments: {},
	ResourceCatalog:      {},
	ResourceDiscounts:    {},
}

// Roles are the policy subjects. A token's role claim "staff" maps to
// RoleStaff; individual accounts can also be granted roles with g rows.
const (
	RoleAdmin   Role = "role:admin"
	RoleStaff   Role = "role:staff"
	RolePatient Role = "role:patient"

	WildcardRole Role = "*"
)

var KnownRoles = map[Role]struct{}{
	RoleAdmin:   {},
	RoleStaff:   {},
	RolePatient: {},
}

const rolePrefix = "role:"

// RoleFromClaim maps a token role claim to its policy role.
func RoleFromClaim(claim string) Role {
	claim = strings.ToLower(strings.TrimSpace(claim))
	if claim == "" {
		return ""
	}
	if strings.HasPrefix(claim, rolePrefix) {
		return Role(claim)
	}
	return Role(rolePrefix + claim)
}

// The booking engine serves a single clinic, so every rule lives in sys.
const (
	DomainSys      Domain = "sys"
	WildcardDomain Domain = "*"
)

func IsValidDomain(d Domain) bool {
	return d == DomainSys || d == WildcardDomain
}

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: an account id or a role.
type GroupSubject string

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
