//go:build unit

package engine_test

import (
	"context"
	"fmt"

	"github.com/LerianStudio/ledger-replay/ledger/amount"
	"github.com/LerianStudio/ledger-replay/ledger/engine"
)

func ExampleEngine_Chargeback() {
	ctx := context.Background()
	e := engine.New()

	e.Deposit(ctx, 1, 1, "3")
	e.Deposit(ctx, 1, 2, "1.5")
	e.Dispute(ctx, 1, 1)
	e.Chargeback(ctx, 1, 1)
	e.Deposit(ctx, 1, 3, "100")

	for _, acct := range e.Snapshot() {
		fmt.Println(acct.Client, amount.Format(acct.Available), amount.Format(acct.Held), amount.Format(acct.Total), acct.Locked)
	}

	// Output:
	// 1 1.5 0 1.5 true
}
