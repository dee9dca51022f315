package auth

// Operation identifies a catalog operation gated by the policy table.
type Operation string

const (
	OpCreateProduct   Operation = "product:create"
	OpGetProduct      Operation = "product:get"
	OpGetProductBySku Operation = "product:get_by_sku"
	OpListProducts    Operation = "product:list"
	OpUpdatePrice     Operation = "product:update_price"
	OpDeleteProduct   Operation = "product:delete"
)

// policy maps each operation to the roles that may invoke it.
var policy = map[Operation][]Role{
	OpCreateProduct:   {RoleAdmin},
	OpGetProduct:      {RoleAdmin, RoleUser},
	OpGetProductBySku: {RoleAdmin, RoleUser},
	OpListProducts:    {RoleAdmin, RoleUser},
	OpUpdatePrice:     {RoleAdmin},
	OpDeleteProduct:   {RoleAdmin},
}

// Allowed reports whether any of the caller's roles grants the operation.
// It is a pure function of the operation and role set; unknown operations
// are denied.
func Allowed(op Operation, roles []Role) bool {
	required, ok := policy[op]
	if !ok {
		return false
	}

	for _, need := range required {
		for _, have := range roles {
			if have == need {
				return true
			}
		}
	}
	return false
}
