// Package rootcmd wires the root cobra.Command for the freshkeep CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	areacmd "freshkeep/cmd/freshkeep/area"
	convertcmd "freshkeep/cmd/freshkeep/convert"
	itemcmd "freshkeep/cmd/freshkeep/item"
	servecmd "freshkeep/cmd/freshkeep/serve"
	"freshkeep/cmd/freshkeep/shared"
	stockcmd "freshkeep/cmd/freshkeep/stock"
	unitscmd "freshkeep/cmd/freshkeep/units"
)

// New creates and returns the root cobra.Command for the freshkeep CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "freshkeep",
		Short:         "FreshKeep: pantry stock in any unit",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.ConfigPath, "config", "",
		"Config file (default: $FRESHKEEP_CONFIG → ~/.config/freshkeep/config.yaml)",
	)

	root.AddCommand(
		convertcmd.New(ctx).Cmd(),
		unitscmd.New(ctx).Cmd(),
		areacmd.New(ctx).Cmd(),
		itemcmd.New(ctx).Cmd(),
		stockcmd.New(ctx).Cmd(),
		servecmd.New(ctx).Cmd(),
	)

	return root
}
