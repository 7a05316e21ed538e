package consts

const (
	LoanApplicationsCollection       = "loan_applications"
	TransactionsInProgressCollection = "transactions_in_progress"
)

// LoanRequestTTLHours bounds how long a duplicate-request guard document can
// linger if the service dies mid-flight.
const LoanRequestTTLHours = 1
