package database

import (
	"context"
	"fmt"

	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return dbpool, nil
}

// The column order here must match paymentRow.
var paymentColumns = []string{
	"external_id", "payer_id", "payee_id", "amount", "currency", "payment_date", "status", "reconciliation_status", "checksum",
}

// PostgresBatchWriter copies each batch into a table inside its own transaction.
type PostgresBatchWriter struct {
	dbpool *pgxpool.Pool
	logger *zap.SugaredLogger
}

func NewPostgresBatchWriter(pool *pgxpool.Pool, logger *zap.SugaredLogger) *PostgresBatchWriter {
	return &PostgresBatchWriter{dbpool: pool, logger: logger}
}

func (w *PostgresBatchWriter) CreatePaymentsTable(ctx context.Context, table string) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		external_id VARCHAR(64) NOT NULL,
		payer_id VARCHAR(64) NOT NULL,
		payee_id VARCHAR(64) NOT NULL,
		amount NUMERIC,
		currency CHAR(3) NOT NULL,
		payment_date DATE NOT NULL,
		status VARCHAR(16) NOT NULL CHECK (status IN ('RECEIVED', 'PROCESSED')),
		reconciliation_status VARCHAR(16) NOT NULL CHECK (reconciliation_status IN ('PENDING', 'RECONCILED', 'INVALID')),
		checksum VARCHAR(16)
	);`, pgx.Identifier{table}.Sanitize())

	_, err := w.dbpool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("error creating %s table: %w", table, err)
	}

	return nil
}

func (w *PostgresBatchWriter) WriteBatch(ctx context.Context, table string, payments []*models.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	if err := w.copyBatch(ctx, table, payments); err != nil {
		return &models.SinkError{Collection: table, Size: len(payments), Err: err}
	}

	return nil
}

func (w *PostgresBatchWriter) copyBatch(ctx context.Context, table string, payments []*models.Payment) error {
	tx, err := w.dbpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	w.logger.Debugf("Bulk loading %d payments into table %s", len(payments), table)
	copySource := pgx.CopyFromSlice(len(payments), func(i int) ([]interface{}, error) {
		return paymentRow(payments[i])
	})

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, paymentColumns, copySource); err != nil {
		return fmt.Errorf("unable to copy payments to table %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func paymentRow(p *models.Payment) ([]interface{}, error) {
	var amount pgtype.Numeric
	if p.Amount != nil {
		if err := amount.Scan(p.Amount.String()); err != nil {
			return nil, fmt.Errorf("invalid amount %s for %s: %w", p.Amount, p.ExternalID, err)
		}
	}

	paymentDate := pgtype.Date{Time: p.PaymentDate, Valid: true}

	return []interface{}{
		p.ExternalID,
		p.PayerID,
		p.PayeeID,
		amount,
		p.Currency,
		paymentDate,
		string(p.Status),
		string(p.ReconciliationStatus),
		p.CheckSum,
	}, nil
}
