// Package areacmd implements the `freshkeep area` commands.
package areacmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"freshkeep"
	"freshkeep/cmd/freshkeep/shared"
)

// Command implements `freshkeep area`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the area command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "area",
		Short: "Manage storage areas (pantry, fridge, shelves)",
	}
	c.cmd.AddCommand(c.addCmd(), c.listCmd())
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) addCmd() *cobra.Command {
	var name, parent string
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Create or rename a storage area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.ctx.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			infos, err := app.Store.Inventories(cmd.Context())
			if err != nil {
				return err
			}
			if err := freshkeep.CheckParent(infos, args[0], parent); err != nil {
				return err
			}
			if name == "" {
				name = args[0]
			}
			inv := freshkeep.NewInventory(args[0], name, app.Conv)
			inv.ParentID = parent
			if err := app.Store.SaveInventory(cmd.Context(), inv); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved area %s\n", inv.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent area id")
	return cmd
}

func (c *Command) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List storage areas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.ctx.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			infos, err := app.Store.Inventories(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPARENT")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.ID, info.Name, info.ParentID)
			}
			return w.Flush()
		},
	}
}
