package parser

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payments.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func paymentsFile(t *testing.T, lines ...string) string {
	t.Helper()
	return writeFile(t, Header+"\n"+strings.Join(lines, "\n")+"\n")
}

func readAll(t *testing.T, r *PartitionReader) []*models.Payment {
	t.Helper()
	var payments []*models.Payment
	for {
		p, err := r.Next()
		if err == io.EOF {
			return payments
		}
		require.NoError(t, err)
		payments = append(payments, p)
	}
}

func mustRead(t *testing.T, path string, line int64) *models.Payment {
	t.Helper()
	r, err := OpenPartition(path, line, line+1)
	require.NoError(t, err)
	defer r.Close()
	p, err := r.Next()
	require.NoError(t, err)
	return p
}

func TestCountDataLines(t *testing.T) {
	t.Run("Success case - trailing newline", func(t *testing.T) {
		path := paymentsFile(t, "P1;C1;L1;10.00;BRL;2025-01-01", "P2;C2;L2;20.00;BRL;2025-01-02")
		count, err := CountDataLines(path)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Success case - no trailing newline", func(t *testing.T) {
		path := writeFile(t, Header+"\nP1;C1;L1;10.00;BRL;2025-01-01\nP2;C2;L2;20.00;BRL;2025-01-02")
		count, err := CountDataLines(path)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Success case - header only", func(t *testing.T) {
		count, err := CountDataLines(writeFile(t, Header+"\n"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Success case - empty file", func(t *testing.T) {
		count, err := CountDataLines(writeFile(t, ""))
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Error case - file not found", func(t *testing.T) {
		_, err := CountDataLines("/non/existent/file.csv")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestPartitionReader(t *testing.T) {
	lines := []string{
		"P1;C000001;L000001;101.01;BRL;2025-01-02",
		"P2;C000002;L000002;102.02;BRL;2025-01-03",
		"P3;C000003;L000003;103.03;BRL;2025-01-04",
		"P4;C000004;L000004;104.04;BRL;2025-01-05",
		"P5;C000005;L000005;105.05;BRL;2025-01-06",
	}

	t.Run("Success case - reads exactly its range", func(t *testing.T) {
		r, err := OpenPartition(paymentsFile(t, lines...), 1, 4)
		require.NoError(t, err)
		defer r.Close()

		payments := readAll(t, r)
		require.Len(t, payments, 3)
		assert.Equal(t, "P2", payments[0].ExternalID)
		assert.Equal(t, "P3", payments[1].ExternalID)
		assert.Equal(t, "P4", payments[2].ExternalID)
	})

	t.Run("Success case - parses every field", func(t *testing.T) {
		r, err := OpenPartition(paymentsFile(t, lines...), 0, 1)
		require.NoError(t, err)
		defer r.Close()

		payments := readAll(t, r)
		require.Len(t, payments, 1)
		p := payments[0]
		assert.Equal(t, "P1", p.ExternalID)
		assert.Equal(t, "C000001", p.PayerID)
		assert.Equal(t, "L000001", p.PayeeID)
		require.NotNil(t, p.Amount)
		assert.Equal(t, "101.01", p.Amount.StringFixed(2))
		assert.Equal(t, "BRL", p.Currency)
		assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), p.PaymentDate)
		assert.Equal(t, models.StatusReceived, p.Status)
		assert.Equal(t, models.ReconciliationPending, p.ReconciliationStatus)
		assert.NotEmpty(t, p.CheckSum)
	})

	t.Run("Success case - file ends before range end", func(t *testing.T) {
		r, err := OpenPartition(paymentsFile(t, lines...), 3, 10)
		require.NoError(t, err)
		defer r.Close()

		payments := readAll(t, r)
		assert.Len(t, payments, 2)
	})

	t.Run("Success case - range starts past end of file", func(t *testing.T) {
		r, err := OpenPartition(paymentsFile(t, lines...), 20, 25)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Next()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("Success case - empty range", func(t *testing.T) {
		r, err := OpenPartition(paymentsFile(t, lines...), 2, 2)
		require.NoError(t, err)
		defer r.Close()

		assert.Empty(t, readAll(t, r))
	})

	t.Run("Error case - malformed amount", func(t *testing.T) {
		path := paymentsFile(t, lines[0], "P2;C000002;L000002;abc;BRL;2025-01-03")
		r, err := OpenPartition(path, 0, 2)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Next()
		require.NoError(t, err)

		_, err = r.Next()
		var parseErr *models.RecordParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, int64(1), parseErr.Line)
		assert.Equal(t, "amount", parseErr.Field)
		assert.Equal(t, "abc", parseErr.Value)
	})

	t.Run("Error case - malformed date", func(t *testing.T) {
		r, err := OpenPartition(paymentsFile(t, "P1;C1;L1;1.00;BRL;02/01/2025"), 0, 1)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Next()
		var parseErr *models.RecordParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "paymentDate", parseErr.Field)
	})

	t.Run("Error case - wrong column count", func(t *testing.T) {
		r, err := OpenPartition(paymentsFile(t, "P1;C1;L1;1.00;BRL"), 0, 1)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Next()
		var parseErr *models.RecordParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, int64(0), parseErr.Line)
		assert.Contains(t, parseErr.Error(), "expected 6 fields")
	})

	t.Run("Success case - CRLF line endings", func(t *testing.T) {
		path := writeFile(t, Header+"\r\n"+strings.Join(lines[:3], "\r\n")+"\r\n")
		count, err := CountDataLines(path)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		r, err := OpenPartition(path, 1, 3)
		require.NoError(t, err)
		defer r.Close()

		payments := readAll(t, r)
		require.Len(t, payments, 2)
		assert.Equal(t, "P2", payments[0].ExternalID)
		assert.Equal(t, "2025-01-04", payments[1].PaymentDate.Format("2006-01-02"))
		assert.Equal(t, payments[0].CheckSum, mustRead(t, paymentsFile(t, lines...), 1).CheckSum)
	})

	t.Run("Success case - last line without newline", func(t *testing.T) {
		path := writeFile(t, Header+"\n"+strings.Join(lines, "\n"))
		count, err := CountDataLines(path)
		require.NoError(t, err)

		r, err := OpenPartition(path, 3, count)
		require.NoError(t, err)
		defer r.Close()

		payments := readAll(t, r)
		require.Len(t, payments, 2)
		assert.Equal(t, "P5", payments[1].ExternalID)
	})

	t.Run("Error case - blank line is a parse error at its own index", func(t *testing.T) {
		path := paymentsFile(t, lines[0], "", lines[2], lines[3])
		r, err := OpenPartition(path, 0, 2)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Next()
		require.NoError(t, err)

		_, err = r.Next()
		var parseErr *models.RecordParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, int64(1), parseErr.Line)

		// the range ends at the blank line, the next line belongs to the next partition
		_, err = r.Next()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("Error case - quoted newline does not merge lines", func(t *testing.T) {
		path := paymentsFile(t, lines[0], `P2;"C1`, `X";L2;1.00;BRL;2025-01-03`, lines[3])
		r, err := OpenPartition(path, 0, 2)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Next()
		require.NoError(t, err)

		_, err = r.Next()
		var parseErr *models.RecordParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, int64(1), parseErr.Line)

		_, err = r.Next()
		assert.Equal(t, io.EOF, err)

		next, err := OpenPartition(path, 2, 4)
		require.NoError(t, err)
		defer next.Close()
		_, err = next.Next()
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, int64(2), parseErr.Line)
		p, err := next.Next()
		require.NoError(t, err)
		assert.Equal(t, "P4", p.ExternalID)
	})

	t.Run("Success case - quote characters are kept verbatim", func(t *testing.T) {
		r, err := OpenPartition(paymentsFile(t, `P1;"C1";L1;1.00;BRL;2025-01-01`), 0, 1)
		require.NoError(t, err)
		defer r.Close()

		payments := readAll(t, r)
		require.Len(t, payments, 1)
		assert.Equal(t, `"C1"`, payments[0].PayerID)
	})

	t.Run("Error case - invalid range", func(t *testing.T) {
		_, err := OpenPartition(paymentsFile(t, lines...), 3, 1)
		assert.Error(t, err)
	})

	t.Run("Error case - file not found", func(t *testing.T) {
		_, err := OpenPartition("/non/existent/file.csv", 0, 1)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
