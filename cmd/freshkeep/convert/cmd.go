// Package convertcmd implements the `freshkeep convert` command.
package convertcmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"freshkeep"
	"freshkeep/cmd/freshkeep/shared"
)

// Command implements `freshkeep convert`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the convert command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "convert <quantity> <from> <to>",
		Short:   "Convert a quantity between two units of the same family",
		Example: "  freshkeep convert 2 lb oz\n  freshkeep convert 1500 mL L",
		Args:    cobra.ExactArgs(3),
		RunE:    c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	qty, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("quantity %q: %w", args[0], freshkeep.ErrInvalidQuantity)
	}

	app, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	from, err := app.Unit(cmd.Context(), args[1])
	if err != nil {
		return err
	}
	to, err := app.Unit(cmd.Context(), args[2])
	if err != nil {
		return err
	}
	out, err := app.Conv.ConvertByID(cmd.Context(), from.ID, qty, to.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n",
		strconv.FormatFloat(qty, 'g', -1, 64), from.Abbreviation,
		strconv.FormatFloat(out, 'g', 10, 64), to.Abbreviation)
	return nil
}
