package domain

// Role identifies a stakeholder role.
// Each role has a configured set of admissible question topics;
// questions outside that set are declined before retrieval.
type Role string

// Recognised stakeholder roles.
const (
	// RoleProductLead asks about business and product performance.
	RoleProductLead Role = "Product Lead"

	// RoleTechLead asks about technical and system health.
	RoleTechLead Role = "Tech Lead"

	// RoleComplianceLead asks about regulatory and risk matters.
	RoleComplianceLead Role = "Compliance Lead"

	// RoleBankAllianceLead asks about partner bank relationships.
	RoleBankAllianceLead Role = "Bank Alliance Lead"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleProductLead, RoleTechLead, RoleComplianceLead, RoleBankAllianceLead:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// AllRoles returns every recognised role.
func AllRoles() []Role {
	return []Role{
		RoleProductLead,
		RoleTechLead,
		RoleComplianceLead,
		RoleBankAllianceLead,
	}
}

// DefaultRoleTopics returns the built-in role to admissible-topics mapping.
// Configuration may override it, but the shape is fixed: loaded once at
// process start, immutable afterwards.
func DefaultRoleTopics() map[Role][]string {
	return map[Role][]string{
		RoleProductLead:      {"business metrics", "user behavior", "product performance"},
		RoleTechLead:         {"technical issues", "system performance", "integration status"},
		RoleComplianceLead:   {"regulatory adherence", "risk factors", "audit trails"},
		RoleBankAllianceLead: {"partnership performance", "integration health", "SLA compliance"},
	}
}
