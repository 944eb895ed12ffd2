package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/LerianStudio/ledger-replay/ledger/amount"
	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
	"github.com/LerianStudio/ledger-replay/ledger/engine"
)

// Writer renders account snapshots as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteSnapshot writes the header followed by one row per account, in the given order,
// and flushes the output.
func (w *Writer) WriteSnapshot(accounts []engine.AccountSnapshot) error {
	if err := w.csv.Write(constant.SnapshotHeader); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	row := make([]string, len(constant.SnapshotHeader))

	for _, acct := range accounts {
		row[0] = strconv.FormatUint(uint64(acct.Client), 10)
		row[1] = amount.Format(acct.Available)
		row[2] = amount.Format(acct.Held)
		row[3] = amount.Format(acct.Total)
		row[4] = strconv.FormatBool(acct.Locked)

		if err := w.csv.Write(row); err != nil {
			return fmt.Errorf("write snapshot row for client %d: %w", acct.Client, err)
		}
	}

	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	return nil
}
