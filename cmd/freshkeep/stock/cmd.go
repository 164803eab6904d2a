// Package stockcmd implements the `freshkeep stock` commands.
package stockcmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"freshkeep"
	"freshkeep/cmd/freshkeep/shared"
)

// Command implements `freshkeep stock`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the stock command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "stock",
		Short: "Record stock movements and query balances",
	}
	c.cmd.AddCommand(
		c.moveCmd("add", "Record stock coming in", freshkeep.TransactionTypeAdd),
		c.moveCmd("remove", "Record stock going out", freshkeep.TransactionTypeRemove),
		c.balanceCmd(),
		c.historyCmd(),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) moveCmd(use, short string, txType int) *cobra.Command {
	var note, at string
	cmd := &cobra.Command{
		Use:   use + " <area> <item> <quantity> [unit]",
		Short: short,
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			qty, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[2], freshkeep.ErrInvalidQuantity)
			}
			ts := time.Now()
			if at != "" {
				if ts, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			app, err := c.ctx.Open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			inv, err := app.Inventory(ctx, args[0])
			if err != nil {
				return err
			}
			item, err := shared.Item(inv, args[1])
			if err != nil {
				return err
			}
			line := freshkeep.TransactionItem{ItemID: item.ID, Quantity: qty}
			if len(args) == 4 {
				unit, err := app.Unit(ctx, args[3])
				if err != nil {
					return err
				}
				line.UnitID = unit.ID
			}
			tx, err := inv.AddTransaction(ctx, freshkeep.Transaction{
				Type:      txType,
				Timestamp: ts,
				Items:     []freshkeep.TransactionItem{line},
				Note:      note,
			})
			if err != nil {
				return err
			}
			unit, err := app.Store.Unit(ctx, item.UnitID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", item.Name, inv.Balance(item.ID), unit.Abbreviation)
			app.Log.Debug("stock moved", zap.String("transaction", tx.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Note stored with the movement")
	cmd.Flags().StringVar(&at, "at", "", "Timestamp (RFC 3339) for back-dated entries")
	return cmd
}

func (c *Command) balanceCmd() *cobra.Command {
	var total bool
	cmd := &cobra.Command{
		Use:   "balance <area> <item> [unit]",
		Short: "Show the balance of an item, optionally in another unit",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.ctx.Open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			areas, err := app.Areas(ctx)
			if err != nil {
				return err
			}
			inv, ok := areas[args[0]]
			if !ok {
				return fmt.Errorf("%w: %q", freshkeep.ErrUnknownArea, args[0])
			}
			item, err := shared.Item(inv, args[1])
			if err != nil && total {
				if found, ok := inv.FindItem(args[1]); ok {
					item, err = found, nil
				}
			}
			if err != nil {
				return err
			}
			unitID := item.UnitID
			if len(args) == 3 {
				u, err := app.Unit(ctx, args[2])
				if err != nil {
					return err
				}
				unitID = u.ID
			}
			unit, err := app.Store.Unit(ctx, unitID)
			if err != nil {
				return err
			}

			var q float64
			if total {
				q, err = inv.TotalIn(ctx, item.ID, unitID)
			} else {
				q, err = inv.BalanceIn(ctx, item.ID, unitID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", item.Name, strconv.FormatFloat(q, 'g', 10, 64), unit.Abbreviation)
			return nil
		},
	}
	cmd.Flags().BoolVar(&total, "total", false, "Include nested storage areas")
	return cmd
}

func (c *Command) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <area> <item>",
		Short: "List the movements of an item with the running balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.ctx.Open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			inv, err := app.Inventory(ctx, args[0])
			if err != nil {
				return err
			}
			item, err := shared.Item(inv, args[1])
			if err != nil {
				return err
			}
			canonical, err := app.Store.Unit(ctx, item.UnitID)
			if err != nil {
				return err
			}

			abbr := map[string]string{canonical.ID: canonical.Abbreviation}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "DATE\tMOVE\tQUANTITY\tBALANCE (%s)\tNOTE\n", canonical.Abbreviation)
			for _, tx := range inv.TransactionsForItems([]string{item.ID}) {
				for _, line := range tx.Items {
					if line.ItemID != item.ID {
						continue
					}
					if _, ok := abbr[line.UnitID]; !ok {
						u, err := app.Store.Unit(ctx, line.UnitID)
						if err != nil {
							return err
						}
						abbr[line.UnitID] = u.Abbreviation
					}
					move := "add"
					if tx.Type == freshkeep.TransactionTypeRemove {
						move = "remove"
					}
					fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n",
						tx.Timestamp.Format(time.RFC3339), move,
						strconv.FormatFloat(line.Quantity, 'g', -1, 64), abbr[line.UnitID],
						line.Balance, tx.Note)
				}
			}
			return w.Flush()
		},
	}
}
