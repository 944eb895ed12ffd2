package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
	"github.com/LerianStudio/ledger-replay/ledger/engine"
	"github.com/LerianStudio/ledger-replay/ledger/log"
)

const utf8BOM = "\ufeff"

// columns holds header positions; -1 marks an absent column.
type columns struct {
	typ    int
	client int
	tx     int
	amount int
}

func (c columns) complete() bool {
	return c.typ >= 0 && c.client >= 0 && c.tx >= 0
}

// Reader streams engine events out of a CSV document with a header row.
type Reader struct {
	csv    *csv.Reader
	logger log.Logger

	cols       columns
	headerRead bool

	rows    int
	skipped int
}

// ReaderOption configures a Reader.
type ReaderOption func(r *Reader)

// WithLogger logs skipped rows at debug level.
func WithLogger(logger log.Logger) ReaderOption {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReader wraps r. Rows may have any number of fields.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	reader := &Reader{
		csv:    cr,
		logger: log.NewNop(),
		cols:   columns{typ: -1, client: -1, tx: -1, amount: -1},
	}

	for _, opt := range opts {
		opt(reader)
	}

	return reader
}

// Next returns the next well-formed event, or io.EOF at end of input.
// Any other error comes from the underlying stream and ends the read.
func (r *Reader) Next() (engine.Event, error) {
	if !r.headerRead {
		if err := r.readHeader(); err != nil {
			return engine.Event{}, err
		}
	}

	for {
		record, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return engine.Event{}, io.EOF
			}

			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				r.rows++
				r.skip(parseErr.StartLine, "malformed csv record")

				continue
			}

			return engine.Event{}, fmt.Errorf("read csv record: %w", err)
		}

		r.rows++

		line, _ := r.csv.FieldPos(0)

		ev, ok := r.event(record)
		if !ok {
			r.skip(line, "missing or invalid event fields")

			continue
		}

		return ev, nil
	}
}

// Rows returns the number of data records read so far, skipped ones included.
func (r *Reader) Rows() int {
	return r.rows
}

// Skipped returns the number of data records dropped before reaching the engine.
func (r *Reader) Skipped() int {
	return r.skipped
}

func (r *Reader) readHeader() error {
	r.headerRead = true

	header, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// without a usable header every data row is skipped
			r.logger.Log(context.Background(), log.LevelWarn, "csv header is malformed; every row will be skipped",
				log.Int("line", parseErr.StartLine), log.Err(parseErr))

			return nil
		}

		return fmt.Errorf("read csv header: %w", err)
	}

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}

		switch strings.ToLower(strings.TrimSpace(name)) {
		case constant.ColumnType:
			r.cols.typ = i
		case constant.ColumnClient:
			r.cols.client = i
		case constant.ColumnTx:
			r.cols.tx = i
		case constant.ColumnAmount:
			r.cols.amount = i
		}
	}

	if !r.cols.complete() {
		r.logger.Log(context.Background(), log.LevelWarn, "csv header lacks required columns; every row will be skipped",
			log.String("header", log.SanitizeString(strings.Join(header, ","))))
	}

	return nil
}

func (r *Reader) event(record []string) (engine.Event, bool) {
	if !r.cols.complete() {
		return engine.Event{}, false
	}

	typ, ok := field(record, r.cols.typ)
	if !ok || typ == "" {
		return engine.Event{}, false
	}

	clientText, ok := field(record, r.cols.client)
	if !ok {
		return engine.Event{}, false
	}

	client, err := strconv.ParseUint(clientText, 10, 64)
	if err != nil {
		return engine.Event{}, false
	}

	txText, ok := field(record, r.cols.tx)
	if !ok {
		return engine.Event{}, false
	}

	tx, err := strconv.ParseUint(txText, 10, 64)
	if err != nil {
		return engine.Event{}, false
	}

	ev := engine.Event{Type: typ, Client: engine.ClientID(client), Tx: engine.TxID(tx)}

	if amountText, ok := field(record, r.cols.amount); ok {
		ev.Amount = &amountText
	}

	return ev, true
}

func (r *Reader) skip(line int, reason string) {
	r.skipped++

	if r.logger.Enabled(log.LevelDebug) {
		r.logger.Log(context.Background(), log.LevelDebug, "csv row skipped",
			log.Int("line", line),
			log.String("reason", reason),
		)
	}
}

// field returns the trimmed value at index i, or false when the record is too short.
func field(record []string, i int) (string, bool) {
	if i < 0 || i >= len(record) {
		return "", false
	}

	return strings.TrimSpace(record[i]), true
}
