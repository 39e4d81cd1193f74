package database

import (
	"context"
	"fmt"
	"time"

	"github.com/danielbgg/payment-batch/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("unable to ping mongodb: %w", err)
	}

	return client, nil
}

type paymentDocument struct {
	ExternalID           string                `bson:"externalId"`
	PayerID              string                `bson:"payerId"`
	PayeeID              string                `bson:"payeeId"`
	Amount               *primitive.Decimal128 `bson:"amount"`
	Currency             string                `bson:"currency"`
	PaymentDate          time.Time             `bson:"paymentDate"`
	Status               string                `bson:"status"`
	ReconciliationStatus string                `bson:"reconciliationStatus"`
	CheckSum             string                `bson:"checksum,omitempty"`
}

func toDocument(p *models.Payment) (paymentDocument, error) {
	doc := paymentDocument{
		ExternalID:           p.ExternalID,
		PayerID:              p.PayerID,
		PayeeID:              p.PayeeID,
		Currency:             p.Currency,
		PaymentDate:          p.PaymentDate.UTC(),
		Status:               string(p.Status),
		ReconciliationStatus: string(p.ReconciliationStatus),
		CheckSum:             p.CheckSum,
	}

	if p.Amount != nil {
		amount, err := primitive.ParseDecimal128(p.Amount.String())
		if err != nil {
			return paymentDocument{}, fmt.Errorf("amount %s of %s does not fit decimal128: %w", p.Amount, p.ExternalID, err)
		}
		doc.Amount = &amount
	}

	return doc, nil
}

// MongoBatchWriter inserts each batch with one ordered InsertMany call. A failed call may
// already have stored a prefix of the batch; those documents stay in the collection while the
// caller counts the whole batch as failed.
type MongoBatchWriter struct {
	db     *mongo.Database
	logger *zap.SugaredLogger
}

func NewMongoBatchWriter(db *mongo.Database, logger *zap.SugaredLogger) *MongoBatchWriter {
	return &MongoBatchWriter{db: db, logger: logger}
}

func (w *MongoBatchWriter) WriteBatch(ctx context.Context, collection string, payments []*models.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	documents := make([]interface{}, 0, len(payments))
	for _, p := range payments {
		doc, err := toDocument(p)
		if err != nil {
			return &models.SinkError{Collection: collection, Size: len(payments), Err: err}
		}
		documents = append(documents, doc)
	}

	w.logger.Debugf("Inserting batch of %d payments into collection %s", len(documents), collection)
	_, err := w.db.Collection(collection).InsertMany(ctx, documents, options.InsertMany().SetOrdered(true))
	if err != nil {
		return &models.SinkError{Collection: collection, Size: len(payments), Err: err}
	}

	return nil
}
