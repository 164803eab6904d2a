// Package itemcmd implements the `freshkeep item` commands.
package itemcmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"freshkeep"
	"freshkeep/cmd/freshkeep/shared"
)

// Command implements `freshkeep item`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the item command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "item",
		Short: "Manage the items tracked in a storage area",
	}
	c.cmd.AddCommand(c.addCmd(), c.listCmd())
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) addCmd() *cobra.Command {
	var description, id string
	cmd := &cobra.Command{
		Use:   "add <area> <name> <unit>",
		Short: "Track an item; its balance is kept in <unit>",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.ctx.Open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			unit, err := app.Unit(ctx, args[2])
			if err != nil {
				return err
			}
			inv, err := app.Inventory(ctx, args[0])
			if err != nil {
				return err
			}
			item, err := inv.RegisterItem(ctx, freshkeep.Item{
				ID:          id,
				Name:        args[1],
				Description: description,
				UnitID:      unit.ID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tracking %s in %s (%s)\n", item.Name, unit.Abbreviation, item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&id, "id", "", "Item id; reuse it across areas to sum with stock balance --total")
	return cmd
}

func (c *Command) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <area>",
		Short: "List items and balances of a storage area",
		Args:  cobra.ExactArgs(1),
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
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBALANCE\tUNIT\tID")
			for _, item := range inv.Items() {
				abbr := item.UnitID
				if u, err := app.Store.Unit(ctx, item.UnitID); err == nil {
					abbr = u.Abbreviation
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Name, inv.Balance(item.ID), abbr, item.ID)
			}
			return w.Flush()
		},
	}
}
