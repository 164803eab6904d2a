// Package servecmd implements the `freshkeep serve` command.
package servecmd

import (
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"freshkeep"
	"freshkeep/cmd/freshkeep/shared"
	"freshkeep/rpc"
)

// Command implements `freshkeep serve`.
type Command struct {
	ctx  *shared.Context
	cmd  *cobra.Command
	addr string
}

// New creates the serve command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions and balances over msgpack RPC",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.addr, "addr", "", "Listen address (default: rpc.addr from config)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := c.ctx.Open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := rpc.NewServer(app.Conv, app.Store, app.Log.Named("rpc"))
	areas, err := app.Areas(ctx)
	if err != nil {
		return err
	}
	for _, inv := range areas {
		inv.AddHook(logMovement(app.Log))
		srv.AddInventory(inv)
	}

	addr := c.addr
	if addr == "" {
		addr = app.Config.RPC.Addr
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return srv.Serve(ctx, ln)
}

func logMovement(log *zap.Logger) freshkeep.HookFunc {
	return func(tx freshkeep.Transaction, inv *freshkeep.Inventory) error {
		for _, line := range tx.Items {
			log.Info("stock moved",
				zap.String("area", inv.ID),
				zap.String("item", line.ItemID),
				zap.Int("type", tx.Type),
				zap.Stringer("balance", line.Balance))
		}
		return nil
	}
}
