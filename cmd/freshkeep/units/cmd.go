// Package unitscmd implements the `freshkeep units` command.
package unitscmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"freshkeep"
	"freshkeep/cmd/freshkeep/shared"
)

// Command implements `freshkeep units`.
type Command struct {
	ctx    *shared.Context
	cmd    *cobra.Command
	family string
}

// New creates the units command and its add subcommand.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "units",
		Short: "List known units",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.family, "family", "", "Only list one family (mass, volume, count)")
	c.cmd.AddCommand(c.addCmd())
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	app, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	units, err := app.Store.ListUnits(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ABBR\tNAME\tFAMILY\tFACTOR")
	for _, u := range units {
		if c.family != "" && string(u.Family) != c.family {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Abbreviation, u.Name, u.Family,
			strconv.FormatFloat(u.Factor, 'g', -1, 64))
	}
	return w.Flush()
}

func (c *Command) addCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <abbreviation> <factor> <family>",
		Short: "Add a custom unit; factor is its size in the family base unit (g, mL, pcs)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			factor, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("factor %q: %w", args[1], freshkeep.ErrInvalidUnit)
			}
			u, err := freshkeep.NewUnit(args[0], name, factor, freshkeep.Family(args[2]))
			if err != nil {
				return err
			}

			app, err := c.ctx.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.SaveUnit(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", u.Abbreviation, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}
