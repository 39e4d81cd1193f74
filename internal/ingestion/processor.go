package ingestion

import (
	"fmt"
	"strconv"

	"github.com/danielbgg/payment-batch/internal/models"
	"go.uber.org/zap"
)

const DefaultProgressInterval = 1_000_000

// Classifier validates a payment and sets its reconciliation outcome. It never fails.
type Classifier struct {
	logger           *zap.SugaredLogger
	progressInterval int64
}

func NewClassifier(logger *zap.SugaredLogger, progressInterval int) *Classifier {
	if progressInterval < 1 {
		progressInterval = DefaultProgressInterval
	}
	return &Classifier{logger: logger, progressInterval: int64(progressInterval)}
}

// Classify marks payments without a positive amount INVALID and everything else RECONCILED,
// then moves the payment to PROCESSED. worker only names the caller in progress logs.
func (c *Classifier) Classify(worker string, payment *models.Payment) *models.Payment {
	c.logProgress(worker, payment.ExternalID)

	if payment.Amount == nil || !payment.Amount.IsPositive() {
		payment.ReconciliationStatus = models.ReconciliationInvalid
	} else {
		payment.ReconciliationStatus = models.ReconciliationReconciled
	}

	payment.Status = models.StatusProcessed
	return payment
}

func (c *Classifier) logProgress(worker, externalID string) {
	idNum, err := externalIDNumber(externalID)
	if err != nil {
		// progress logging is best effort
		return
	}
	if idNum%c.progressInterval == 0 {
		c.logger.Infof("Processing externalId=%s on worker=%s", externalID, worker)
	}
}

// externalIDNumber turns "P123" into 123.
func externalIDNumber(externalID string) (int64, error) {
	if len(externalID) < 2 {
		return 0, fmt.Errorf("external id %q has no numeric suffix", externalID)
	}
	return strconv.ParseInt(externalID[1:], 10, 64)
}
