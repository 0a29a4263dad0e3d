package tool

// Tool names. These are the only names the model may request; anything else
// is rejected at dispatch.
const (
	NameCheckBalance    = "check_balance"
	NameCreateTicket    = "create_ticket"
	NameRegisterPayment = "register_payment"
)

// CheckBalanceDefinition describes the balance lookup operation.
func CheckBalanceDefinition() Definition {
	return NewDefinition(
		NameCheckBalance,
		"Look up a customer's current account balance by customer ID.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"customer_id": {
					Type:        "integer",
					Description: "The numeric ID of the customer.",
				},
			},
			Required: []string{"customer_id"},
		},
	)
}

// CreateTicketDefinition describes the ticket creation operation.
func CreateTicketDefinition() Definition {
	return NewDefinition(
		NameCreateTicket,
		"Open a support ticket for a customer. Subject is required.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"customer_id": {
					Type:        "integer",
					Description: "The numeric ID of the customer.",
				},
				"subject": {
					Type:        "string",
					Description: "Short summary of the issue.",
				},
				"description": {
					Type:        "string",
					Description: "Optional free-text details.",
				},
			},
			Required: []string{"customer_id", "subject"},
		},
	)
}

// RegisterPaymentDefinition describes the payment registration operation.
// The amount is deliberately typed as number-or-string: models quote monetary
// values as often as not, and the normalizer owns the real validation. No
// rounding to currency precision is applied.
func RegisterPaymentDefinition() Definition {
	return NewDefinition(
		NameRegisterPayment,
		"Register a payment for a customer and deduct it from their balance.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"customer_id": {
					Type:        "integer",
					Description: "The numeric ID of the customer.",
				},
				"amount": {
					Type:        "number",
					Description: "The payment amount. A numeric string like \"50.00\" is also accepted.",
				},
			},
			Required: []string{"customer_id", "amount"},
		},
	)
}
