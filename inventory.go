package freshkeep

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HookFunc func(tx Transaction, inv *Inventory) error

// Item is a product tracked by an inventory. Balances are kept in UnitID.
type Item struct {
	ID          string
	Name        string
	Description string
	UnitID      string
}

// Inventory is a storage area (pantry, fridge, freezer shelf). Areas nest
// through sub-inventories.
type Inventory struct {
	ID       string
	ParentID string
	Name     string

	mutex          sync.Mutex
	transactions   []Transaction
	items          map[string]Item
	subInventories map[string]*Inventory
	hooks          []HookFunc

	conv  *Converter
	store *Store
	log   *zap.Logger
}

func NewInventory(id, name string, conv *Converter) *Inventory {
	return &Inventory{
		ID:             id,
		Name:           name,
		items:          make(map[string]Item),
		subInventories: make(map[string]*Inventory),
		conv:           conv,
		log:            zap.NewNop(),
	}
}

func (inv *Inventory) WithLogger(log *zap.Logger) *Inventory {
	inv.log = log.With(zap.String("inventory", inv.ID))
	return inv
}

// WithStore loads the persisted items and transactions of this inventory and
// persists every later change.
func (inv *Inventory) WithStore(ctx context.Context, store *Store) error {
	if err := store.SaveInventory(ctx, inv); err != nil {
		return err
	}
	items, err := store.Items(ctx, inv.ID)
	if err != nil {
		return err
	}
	txs, err := store.Transactions(ctx, inv.ID)
	if err != nil {
		return err
	}
	sortTransactions(txs)
	if err := recomputeBalances(txs, time.Time{}); err != nil {
		return fmt.Errorf("load inventory %s: %w", inv.ID, err)
	}

	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	for _, item := range items {
		inv.items[item.ID] = item
	}
	inv.transactions = txs
	inv.store = store
	return nil
}

// AddSub nests sub under inv. It fails with ErrAreaCycle when inv is sub
// itself or already nested somewhere below sub.
func (inv *Inventory) AddSub(sub *Inventory) error {
	if sub == inv || sub.ID == inv.ID || sub.contains(inv) {
		return fmt.Errorf("%w: %s under %s", ErrAreaCycle, sub.ID, inv.ID)
	}
	sub.ParentID = inv.ID
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	inv.subInventories[sub.ID] = sub
	return nil
}

// contains reports whether target is nested anywhere below inv.
func (inv *Inventory) contains(target *Inventory) bool {
	seen := map[*Inventory]bool{inv: true}
	queue := inv.subs()
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == target {
			return true
		}
		if seen[next] {
			continue
		}
		seen[next] = true
		queue = append(queue, next.subs()...)
	}
	return false
}

func (inv *Inventory) Sub(id string) (*Inventory, bool) {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	sub, ok := inv.subInventories[id]
	return sub, ok
}

func (inv *Inventory) subs() []*Inventory {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	subs := make([]*Inventory, 0, len(inv.subInventories))
	for _, sub := range inv.subInventories {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs
}

func (inv *Inventory) AddHook(h HookFunc) {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	inv.hooks = append(inv.hooks, h)
}

// RegisterItem adds an item. Its unit must be known to the converter. An empty
// ID is filled with a fresh UUID; the stored item is returned.
func (inv *Inventory) RegisterItem(ctx context.Context, item Item) (Item, error) {
	if _, err := inv.conv.Units().Unit(ctx, item.UnitID); err != nil {
		return Item{}, fmt.Errorf("register item %q: %w", item.Name, err)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	if inv.store != nil {
		if err := inv.store.SaveItem(ctx, inv.ID, item); err != nil {
			return Item{}, err
		}
	}
	inv.items[item.ID] = item
	return item, nil
}

func (inv *Inventory) Item(id string) (Item, bool) {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	item, ok := inv.items[id]
	return item, ok
}

// Items returns the registered items sorted by name.
func (inv *Inventory) Items() []Item {
	inv.mutex.Lock()
	items := make([]Item, 0, len(inv.items))
	for _, item := range inv.items {
		items = append(items, item)
	}
	inv.mutex.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func (inv *Inventory) AddItems(ctx context.Context, items []TransactionItem, note string, timestamp time.Time) (Transaction, error) {
	return inv.AddTransaction(ctx, Transaction{
		Type:      TransactionTypeAdd,
		Timestamp: timestamp,
		Items:     items,
		Note:      note,
	})
}

func (inv *Inventory) RemoveItems(ctx context.Context, items []TransactionItem, note string, timestamp time.Time) (Transaction, error) {
	return inv.AddTransaction(ctx, Transaction{
		Type:      TransactionTypeRemove,
		Timestamp: timestamp,
		Items:     items,
		Note:      note,
	})
}

// AddTransaction converts every line into its item's canonical unit, inserts
// the transaction in timestamp order and recomputes the affected balances. A
// transaction that would leave any balance negative is rejected as a whole.
func (inv *Inventory) AddTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}
	tx.InventoryID = inv.ID
	tx = tx.clone()
	for i := range tx.Items {
		line := &tx.Items[i]
		item, ok := inv.Item(line.ItemID)
		if !ok {
			return Transaction{}, fmt.Errorf("%w: %s", ErrUnknownItem, line.ItemID)
		}
		if line.UnitID == "" {
			line.UnitID = item.UnitID
		}
		amount, err := inv.conv.ConvertByID(ctx, line.UnitID, line.Quantity, item.UnitID)
		if err != nil {
			return Transaction{}, fmt.Errorf("transaction line %s: %w", item.Name, err)
		}
		if line.Amount, err = NewDecimalFromFloat(amount); err != nil {
			return Transaction{}, fmt.Errorf("transaction line %s: %w", item.Name, err)
		}
	}

	inv.mutex.Lock()
	txs := make([]Transaction, 0, len(inv.transactions)+1)
	for _, t := range inv.transactions {
		txs = append(txs, t.clone())
	}
	txs = append(txs, tx)
	sortTransactions(txs)
	if err := recomputeBalances(txs, tx.Timestamp); err != nil {
		inv.mutex.Unlock()
		return Transaction{}, err
	}
	if inv.store != nil {
		if err := inv.store.SaveTransactions(ctx, transactionsSince(txs, tx.Timestamp)...); err != nil {
			inv.mutex.Unlock()
			return Transaction{}, err
		}
	}
	inv.transactions = txs
	for _, t := range txs {
		if t.ID == tx.ID {
			tx = t.clone()
			break
		}
	}
	hooks := append([]HookFunc(nil), inv.hooks...)
	inv.mutex.Unlock()

	inv.log.Debug("transaction recorded",
		zap.String("id", tx.ID),
		zap.Int("type", tx.Type),
		zap.Int("lines", len(tx.Items)))
	inv.runHooks(hooks, tx)
	return tx, nil
}

func transactionsSince(txs []Transaction, since time.Time) []Transaction {
	for i := range txs {
		if !txs[i].Timestamp.Before(since) {
			return txs[i:]
		}
	}
	return nil
}

func (inv *Inventory) runHooks(hooks []HookFunc, tx Transaction) {
	for _, hook := range hooks {
		if err := hook(tx, inv); err != nil {
			inv.log.Warn("transaction hook failed", zap.String("transaction", tx.ID), zap.Error(err))
		}
	}
}

func (inv *Inventory) TransactionsForItems(itemIDs []string) []Transaction {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	var filtered []Transaction
	for _, tx := range inv.transactions {
		for _, item := range tx.Items {
			if contains(itemIDs, item.ItemID) {
				filtered = append(filtered, tx.clone())
				break
			}
		}
	}
	return filtered
}

func (inv *Inventory) Balances() map[string]Decimal {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	balances := make(map[string]Decimal)
	for _, tx := range inv.transactions {
		for _, item := range tx.Items {
			balances[item.ItemID] = item.Balance
		}
	}
	return balances
}

// Balance returns the stock of itemID in the item's canonical unit.
func (inv *Inventory) Balance(itemID string) Decimal {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()
	for i := len(inv.transactions) - 1; i >= 0; i-- {
		for _, line := range inv.transactions[i].Items {
			if line.ItemID == itemID {
				return line.Balance
			}
		}
	}
	return Decimal{}
}

// BalanceIn returns the stock of itemID expressed in unitID.
func (inv *Inventory) BalanceIn(ctx context.Context, itemID, unitID string) (float64, error) {
	item, ok := inv.Item(itemID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if unitID == "" {
		unitID = item.UnitID
	}
	return inv.conv.ConvertByID(ctx, item.UnitID, inv.Balance(itemID).Float64(), unitID)
}

// TotalIn sums the stock of itemID in this inventory and every nested
// sub-inventory that tracks it, expressed in unitID.
func (inv *Inventory) TotalIn(ctx context.Context, itemID, unitID string) (float64, error) {
	if unitID == "" {
		return 0, fmt.Errorf("total of %s: %w: no target unit", itemID, ErrUnitNotFound)
	}
	total, found, err := inv.totalIn(ctx, itemID, unitID, make(map[*Inventory]bool))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	return total, nil
}

func (inv *Inventory) totalIn(ctx context.Context, itemID, unitID string, seen map[*Inventory]bool) (float64, bool, error) {
	if seen[inv] {
		return 0, false, fmt.Errorf("%w: %s reached twice", ErrAreaCycle, inv.ID)
	}
	seen[inv] = true
	var total float64
	found := false
	q, err := inv.BalanceIn(ctx, itemID, unitID)
	switch {
	case err == nil:
		total, found = q, true
	case !errors.Is(err, ErrUnknownItem):
		return 0, false, err
	}
	for _, sub := range inv.subs() {
		q, ok, err := sub.totalIn(ctx, itemID, unitID, seen)
		if err != nil {
			return 0, false, err
		}
		if ok {
			total += q
			found = true
		}
	}
	return total, found, nil
}

// FindItem looks itemID up in inv first, then breadth-first through the
// nested areas.
func (inv *Inventory) FindItem(itemID string) (Item, bool) {
	seen := make(map[*Inventory]bool)
	queue := []*Inventory{inv}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		if item, ok := next.Item(itemID); ok {
			return item, true
		}
		queue = append(queue, next.subs()...)
	}
	return Item{}, false
}
