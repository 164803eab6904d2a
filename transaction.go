package freshkeep

import (
	"fmt"
	"sort"
	"time"
)

const (
	TransactionTypeAdd    = 1
	TransactionTypeRemove = -1
)

type Transaction struct {
	ID          string
	InventoryID string
	Type        int
	Timestamp   time.Time
	Items       []TransactionItem
	Note        string
}

type TransactionItem struct {
	ItemID   string
	Quantity float64 // as recorded, in UnitID
	UnitID   string
	Amount   Decimal // Quantity in the item's canonical unit
	Balance  Decimal // stock level in the canonical unit *after* this transaction
}

func (tx Transaction) clone() Transaction {
	tx.Items = append([]TransactionItem(nil), tx.Items...)
	return tx
}

func sortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})
}

// recomputeBalances rewrites the running balance of every line at or after
// since. Lines before since are trusted and seed the running totals.
func recomputeBalances(txs []Transaction, since time.Time) error {
	balances := make(map[string]Decimal)
	for i := range txs {
		tx := &txs[i]
		for j := range tx.Items {
			line := &tx.Items[j]
			if tx.Timestamp.Before(since) {
				balances[line.ItemID] = line.Balance
				continue
			}
			var bal Decimal
			var err error
			switch tx.Type {
			case TransactionTypeAdd:
				bal, err = balances[line.ItemID].Add(line.Amount)
			case TransactionTypeRemove:
				bal, err = balances[line.ItemID].Sub(line.Amount)
			default:
				return fmt.Errorf("transaction %s: unknown type %d", tx.ID, tx.Type)
			}
			if err != nil {
				return fmt.Errorf("transaction %s item %s: %w", tx.ID, line.ItemID, err)
			}
			if bal.Sign() < 0 {
				return fmt.Errorf("%w: item %s would drop to %s at %s",
					ErrInsufficientStock, line.ItemID, bal, tx.Timestamp.Format(time.RFC3339))
			}
			line.Balance = bal
			balances[line.ItemID] = bal
		}
	}
	return nil
}

func contains(slice []string, val string) bool {
	for _, item := range slice {
		if item == val {
			return true
		}
	}
	return false
}
