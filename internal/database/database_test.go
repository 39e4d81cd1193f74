package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func processedPayment(amount string) *models.Payment {
	var value *decimal.Decimal
	if amount != "" {
		d := decimal.RequireFromString(amount)
		value = &d
	}
	p := models.NewPayment("P42", "C000042", "L000042", value, "BRL", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	p.Status = models.StatusProcessed
	p.ReconciliationStatus = models.ReconciliationReconciled
	p.CheckSum = "0123456789abcdef"
	return p
}

func TestToDocument(t *testing.T) {
	t.Run("Success case - maps every field", func(t *testing.T) {
		doc, err := toDocument(processedPayment("142.42"))
		require.NoError(t, err)

		assert.Equal(t, "P42", doc.ExternalID)
		assert.Equal(t, "C000042", doc.PayerID)
		assert.Equal(t, "L000042", doc.PayeeID)
		require.NotNil(t, doc.Amount)
		assert.Equal(t, "142.42", doc.Amount.String())
		assert.Equal(t, "BRL", doc.Currency)
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), doc.PaymentDate)
		assert.Equal(t, "PROCESSED", doc.Status)
		assert.Equal(t, "RECONCILED", doc.ReconciliationStatus)
		assert.Equal(t, "0123456789abcdef", doc.CheckSum)
	})

	t.Run("Success case - absent amount", func(t *testing.T) {
		doc, err := toDocument(processedPayment(""))
		require.NoError(t, err)
		assert.Nil(t, doc.Amount)
	})
}

func TestMongoBatchWriter_WriteBatch(t *testing.T) {
	t.Run("Success case - empty batch is a no-op", func(t *testing.T) {
		// a nil database would panic if the writer touched it
		writer := NewMongoBatchWriter(nil, zap.NewNop().Sugar())
		assert.NoError(t, writer.WriteBatch(context.Background(), "payments", nil))
	})
}

func TestPaymentRow(t *testing.T) {
	t.Run("Success case - column order", func(t *testing.T) {
		row, err := paymentRow(processedPayment("12.50"))
		require.NoError(t, err)
		require.Len(t, row, len(paymentColumns))

		assert.Equal(t, "P42", row[0])
		assert.Equal(t, "C000042", row[1])
		assert.Equal(t, "L000042", row[2])

		amount, ok := row[3].(pgtype.Numeric)
		require.True(t, ok)
		assert.True(t, amount.Valid)

		assert.Equal(t, "BRL", row[4])
		assert.Equal(t, pgtype.Date{Time: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), Valid: true}, row[5])
		assert.Equal(t, "PROCESSED", row[6])
		assert.Equal(t, "RECONCILED", row[7])
		assert.Equal(t, "0123456789abcdef", row[8])
	})

	t.Run("Success case - absent amount is NULL", func(t *testing.T) {
		row, err := paymentRow(processedPayment(""))
		require.NoError(t, err)

		amount := row[3].(pgtype.Numeric)
		assert.False(t, amount.Valid)
	})
}

func TestPostgresBatchWriter_WriteBatch(t *testing.T) {
	t.Run("Success case - empty batch is a no-op", func(t *testing.T) {
		writer := NewPostgresBatchWriter(nil, zap.NewNop().Sugar())
		assert.NoError(t, writer.WriteBatch(context.Background(), "payments", []*models.Payment{}))
	})
}

func TestConnectDB(t *testing.T) {
	t.Run("Error case - malformed connection string keeps its cause", func(t *testing.T) {
		pool, err := ConnectDB("postgres://%zz")

		assert.Nil(t, pool)
		require.Error(t, err)
		var parseErr *pgconn.ParseConfigError
		assert.True(t, errors.As(err, &parseErr))
	})
}
