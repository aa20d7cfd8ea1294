package auth

// Role is the account type of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMerchant Role = "merchant"
	RoleClient   Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMerchant, RoleClient:
		return true
	}
	return false
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsMerchant() bool { return a.Role == RoleMerchant }
func (a Actor) IsClient() bool   { return a.Role == RoleClient }

type Resource string

const (
	ResourceUser      Resource = "users"
	ResourceZone      Resource = "zones"
	ResourceShop      Resource = "shops"
	ResourceLease     Resource = "leases"
	ResourcePayment   Resource = "payments"
	ResourceEmployee  Resource = "employees"
	ResourceProduct   Resource = "products"
	ResourceCart      Resource = "cart"
	ResourceOrder     Resource = "orders"
	ResourceDashboard Resource = "dashboard"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionList    Action = "list"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionManage  Action = "manage"
	ActionPlace   Action = "place"
	ActionReadOwn Action = "read_own"
)

type permission struct {
	resource Resource
	action   Action
}

// capabilities lists every permitted (role, resource, action). Anything
// absent is denied. Ownership checks happen after this table allows a call.
var capabilities = map[Role]map[permission]bool{
	RoleAdmin: grant(
		permission{ResourceUser, ActionRead},
		permission{ResourceUser, ActionList},
		permission{ResourceUser, ActionCreate},
		permission{ResourceUser, ActionUpdate},
		permission{ResourceUser, ActionDelete},
		permission{ResourceZone, ActionCreate},
		permission{ResourceZone, ActionUpdate},
		permission{ResourceZone, ActionDelete},
		permission{ResourceShop, ActionCreate},
		permission{ResourceShop, ActionUpdate},
		permission{ResourceShop, ActionDelete},
		permission{ResourceShop, ActionManage},
		permission{ResourceLease, ActionRead},
		permission{ResourceLease, ActionList},
		permission{ResourceLease, ActionCreate},
		permission{ResourceLease, ActionUpdate},
		permission{ResourceLease, ActionDelete},
		permission{ResourceLease, ActionManage},
		permission{ResourcePayment, ActionRead},
		permission{ResourcePayment, ActionList},
		permission{ResourcePayment, ActionCreate},
		permission{ResourcePayment, ActionUpdate},
		permission{ResourcePayment, ActionDelete},
		permission{ResourceEmployee, ActionRead},
		permission{ResourceEmployee, ActionList},
		permission{ResourceEmployee, ActionCreate},
		permission{ResourceEmployee, ActionUpdate},
		permission{ResourceEmployee, ActionDelete},
		permission{ResourceEmployee, ActionManage},
		permission{ResourceProduct, ActionCreate},
		permission{ResourceProduct, ActionUpdate},
		permission{ResourceProduct, ActionDelete},
		permission{ResourceOrder, ActionRead},
		permission{ResourceOrder, ActionList},
		permission{ResourceOrder, ActionUpdate},
		permission{ResourceDashboard, ActionRead},
	),
	RoleMerchant: grant(
		permission{ResourceLease, ActionList},
		permission{ResourceLease, ActionRead},
		permission{ResourcePayment, ActionList},
		permission{ResourcePayment, ActionRead},
		permission{ResourceShop, ActionManage},
		permission{ResourceProduct, ActionCreate},
		permission{ResourceProduct, ActionUpdate},
		permission{ResourceProduct, ActionDelete},
		permission{ResourceOrder, ActionRead},
		permission{ResourceOrder, ActionUpdate},
	),
	RoleClient: grant(
		permission{ResourceCart, ActionRead},
		permission{ResourceCart, ActionUpdate},
		permission{ResourceOrder, ActionPlace},
		permission{ResourceOrder, ActionReadOwn},
		permission{ResourceOrder, ActionRead},
	),
}

func grant(perms ...permission) map[permission]bool {
	m := make(map[permission]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}

// Allowed reports whether role may perform action on resource.
func Allowed(role Role, resource Resource, action Action) bool {
	return capabilities[role][permission{resource, action}]
}
