package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danielbgg/payment-batch/internal/models"
	"github.com/danielbgg/payment-batch/pkg/checksum"
	"github.com/shopspring/decimal"
)

// Header is the expected first line of a payments file. It is skipped, never validated.
const Header = "externalId;payerId;payeeId;amount;currency;paymentDate"

const (
	Delimiter  = ';'
	dateFormat = "2006-01-02"
	numFields  = 6

	colExternalID  = 0
	colPayerID     = 1
	colPayeeID     = 2
	colAmount      = 3
	colCurrency    = 4
	colPaymentDate = 5
)

const readBufferSize = 256 * 1024

var errEmptyLine = errors.New("empty line")

// CountDataLines reads the whole file once and returns the number of lines after the header.
// A last line without a trailing newline still counts.
func CountDataLines(filePath string) (int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	var lines int64
	var last byte
	var read int64
	buf := make([]byte, readBufferSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
			read += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if read == 0 {
		return 0, nil
	}
	if last != '\n' {
		lines++
	}

	// first line is the header
	return lines - 1, nil
}

// PartitionReader yields the payments of one [startLine, endLine) range. It is single use.
// Every physical line of the range is one record, so a blank or malformed line yields a
// RecordParseError instead of shifting the range.
type PartitionReader struct {
	file      *os.File
	br        *bufio.Reader
	startLine int64
	endLine   int64
	produced  int64
	done      bool
}

// OpenPartition opens filePath and positions the reader on data line startLine.
func OpenPartition(filePath string, startLine, endLine int64) (*PartitionReader, error) {
	if startLine < 0 || endLine < startLine {
		return nil, fmt.Errorf("invalid line range [%d - %d)", startLine, endLine)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}

	br := bufio.NewReaderSize(file, readBufferSize)
	skipped, err := skipLines(br, startLine+1)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to skip to data line %d in %s: %w", startLine, filePath, err)
	}

	return &PartitionReader{
		file:      file,
		br:        br,
		startLine: startLine,
		endLine:   endLine,
		// a file shorter than the start of the range produces nothing
		done: skipped < startLine+1,
	}, nil
}

// Next returns the next payment of the range, or io.EOF once the range or the file is exhausted.
func (r *PartitionReader) Next() (*models.Payment, error) {
	if r.done || r.startLine+r.produced >= r.endLine {
		r.done = true
		return nil, io.EOF
	}

	line := r.startLine + r.produced
	raw, err := r.br.ReadString('\n')
	if err != nil && err != io.EOF {
		r.done = true
		return nil, fmt.Errorf("failed to read data line %d: %w", line, err)
	}
	if err == io.EOF {
		r.done = true
		if raw == "" {
			return nil, io.EOF
		}
	}

	// the line is consumed even when it fails to parse
	r.produced++

	text := strings.TrimRight(raw, "\r\n")
	if text == "" {
		return nil, &models.RecordParseError{Line: line, Err: errEmptyLine}
	}

	record := strings.Split(text, string(Delimiter))
	if len(record) != numFields {
		return nil, &models.RecordParseError{Line: line, Err: fmt.Errorf("expected %d fields, got %d", numFields, len(record))}
	}

	return parseRecord(record, text, line)
}

func (r *PartitionReader) Close() error {
	r.done = true
	return r.file.Close()
}

func parseRecord(record []string, text string, line int64) (*models.Payment, error) {
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return nil, &models.RecordParseError{Line: line, Field: "amount", Value: record[colAmount], Err: err}
	}

	paymentDate, err := time.Parse(dateFormat, record[colPaymentDate])
	if err != nil {
		return nil, &models.RecordParseError{Line: line, Field: "paymentDate", Value: record[colPaymentDate], Err: err}
	}

	payment := models.NewPayment(
		record[colExternalID],
		record[colPayerID],
		record[colPayeeID],
		&amount,
		record[colCurrency],
		paymentDate,
	)
	payment.CheckSum = checksum.Row(text)

	return payment, nil
}

// skipLines discards up to n lines and reports how many were actually discarded.
func skipLines(br *bufio.Reader, n int64) (int64, error) {
	var skipped int64
	for skipped < n {
		data, err := br.ReadSlice('\n')
		switch {
		case err == nil:
			skipped++
		case errors.Is(err, bufio.ErrBufferFull):
			// long line, keep consuming it
		case err == io.EOF:
			if len(data) > 0 {
				skipped++
			}
			return skipped, nil
		default:
			return skipped, err
		}
	}
	return skipped, nil
}
