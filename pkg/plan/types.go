package plan

// Type identifies a subscription plan tier.
type Type string

const (
	TypeFree      Type = "free"
	TypeWeekly    Type = "weekly"
	TypeMonthly   Type = "monthly"
	TypeQuarterly Type = "quarterly"
	TypeYearly    Type = "yearly"
)

// Types lists all known plan types in ascending tier order.
var Types = []Type{TypeFree, TypeWeekly, TypeMonthly, TypeQuarterly, TypeYearly}

// IsValid reports whether t is a known plan type.
func (t Type) IsValid() bool {
	switch t {
	case TypeFree, TypeWeekly, TypeMonthly, TypeQuarterly, TypeYearly:
		return true
	}
	return false
}

// Resource represents a countable tenant resource type.
type Resource string

const (
	ResourceEmployees    Resource = "employees"
	ResourceVisitors     Resource = "visitors"
	ResourceAppointments Resource = "appointments"
	ResourceSpotPasses   Resource = "spot_passes"
)

// Resources lists all countable resource types.
var Resources = []Resource{ResourceEmployees, ResourceVisitors, ResourceAppointments, ResourceSpotPasses}

// Unlimited indicates no limit for a resource (-1 chosen for storage compatibility).
const Unlimited int64 = -1

// Module represents an optional feature module a plan can include.
type Module string

const (
	ModuleMessaging     Module = "messaging"
	ModuleVisitorInvite Module = "visitor_invite"
	ModuleSpotPass      Module = "spot_pass"
	ModuleReports       Module = "reports"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD would be Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount"`   // amount in smallest currency unit (cents for USD)
	Currency string `yaml:"currency"` // ISO 4217 currency code
}
