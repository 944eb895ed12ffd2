package constant

// Event verbs accepted in the type column.
const (
	// DEPOSIT credits available funds and records a disputable transaction.
	DEPOSIT = "deposit"
	// WITHDRAWAL debits available funds.
	WITHDRAWAL = "withdrawal"
	// DISPUTE moves a deposit's amount from available to held.
	DISPUTE = "dispute"
	// RESOLVE moves a disputed amount from held back to available.
	RESOLVE = "resolve"
	// CHARGEBACK removes a disputed amount from held and locks the account.
	CHARGEBACK = "chargeback"
)
