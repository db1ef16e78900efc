package model

// PaymentStatusSucceeded is the only status a receipt may carry to be trusted.
const PaymentStatusSucceeded = "succeeded"

// PaymentOwner is the purchase a payment was opened for. Processors store it
// with the payment and report it back, so a receipt can only redeem its own.
type PaymentOwner struct {
	LearnerID string
	CourseID  string
}

// PaymentIntent is never persisted; a retry simply opens a new one.
type PaymentIntent struct {
	ProcessorIntentID string
	ClientSecret      string
	Amount            int64 // minor units
	Currency          string
}

// PaymentReceipt is the client-reported result of a completed charge.
type PaymentReceipt struct {
	PaymentID string
	Amount    int64 // minor units
	Status    string
	Email     string
	LearnerID string
	CourseID  string
}

func (r *PaymentReceipt) Owner() PaymentOwner {
	return PaymentOwner{LearnerID: r.LearnerID, CourseID: r.CourseID}
}

// ProcessorPayment is the processor's own view of a payment, fetched server side.
type ProcessorPayment struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
	Owner    PaymentOwner
}
