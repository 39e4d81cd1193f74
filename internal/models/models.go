package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusReceived  Status = "RECEIVED"
	StatusProcessed Status = "PROCESSED"
)

type ReconciliationStatus string

const (
	ReconciliationPending    ReconciliationStatus = "PENDING"
	ReconciliationReconciled ReconciliationStatus = "RECONCILED"
	ReconciliationInvalid    ReconciliationStatus = "INVALID"
)

// Payment is a single row of the input file. It is owned by one partition until it is written.
type Payment struct {
	ExternalID           string               `json:"external_id"`
	PayerID              string               `json:"payer_id"`
	PayeeID              string               `json:"payee_id"`
	Amount               *decimal.Decimal     `json:"amount,omitempty"`
	Currency             string               `json:"currency"`
	PaymentDate          time.Time            `json:"payment_date"`
	Status               Status               `json:"status"`
	ReconciliationStatus ReconciliationStatus `json:"reconciliation_status"`
	CheckSum             string               `json:"checksum,omitempty"`
}

// NewPayment builds a freshly read payment, RECEIVED and PENDING.
func NewPayment(externalID, payerID, payeeID string, amount *decimal.Decimal, currency string, paymentDate time.Time) *Payment {
	return &Payment{
		ExternalID:           externalID,
		PayerID:              payerID,
		PayeeID:              payeeID,
		Amount:               amount,
		Currency:             currency,
		PaymentDate:          paymentDate,
		Status:               StatusReceived,
		ReconciliationStatus: ReconciliationPending,
	}
}

// Partition is a half-open range [StartLine, EndLine) of 0-based data line indexes, header excluded.
type Partition struct {
	ID        int
	FilePath  string
	StartLine int64
	EndLine   int64
}

func (p Partition) Size() int64 {
	return p.EndLine - p.StartLine
}

func (p Partition) Name() string {
	return fmt.Sprintf("partition-%d", p.ID)
}

func (p Partition) String() string {
	return fmt.Sprintf("%s[%d - %d)", p.Name(), p.StartLine, p.EndLine)
}
