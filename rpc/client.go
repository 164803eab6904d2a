package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"freshkeep"
)

// Client issues one call at a time over a single connection.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	buf     PacketBuffer
	pending []*Packet
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Convert(ctx context.Context, fromID string, quantity float64, toID string) (float64, error) {
	var resp ConvertResponse
	err := c.call(ctx, FuncConvert, ConvertRequest{From: fromID, To: toID, Quantity: quantity}, &resp)
	return resp.Quantity, err
}

func (c *Client) Units(ctx context.Context) ([]freshkeep.Unit, error) {
	var resp UnitsResponse
	if err := c.call(ctx, FuncUnits, nil, &resp); err != nil {
		return nil, err
	}
	units := make([]freshkeep.Unit, 0, len(resp.Units))
	for _, m := range resp.Units {
		units = append(units, m.ToUnit())
	}
	return units, nil
}

func (c *Client) Balance(ctx context.Context, req BalanceRequest) (BalanceResponse, error) {
	var resp BalanceResponse
	err := c.call(ctx, FuncBalance, req, &resp)
	return resp, err
}

func (c *Client) Move(ctx context.Context, req MoveRequest) (MoveResponse, error) {
	var resp MoveResponse
	err := c.call(ctx, FuncMove, req, &resp)
	return resp, err
}

func (c *Client) call(ctx context.Context, fn string, arg, result any) error {
	pkt := &Packet{ID: uuid.NewString(), Func: fn}
	if arg != nil {
		body, err := msgpack.Marshal(arg)
		if err != nil {
			return err
		}
		pkt.Body = body
	}
	out, err := encodePacket(pkt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
	}
	defer c.conn.SetDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() { _ = c.conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := c.conn.Write(out); err != nil {
		return c.ctxErr(ctx, err)
	}
	resp, err := c.await(pkt.ID)
	if err != nil {
		return c.ctxErr(ctx, err)
	}
	if resp.Code != CodeOK {
		return &RemoteError{Code: resp.Code, Message: resp.Err}
	}
	if result == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := msgpack.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("decode %s response: %w", fn, err)
	}
	return nil
}

// await reads until the response for id arrives; responses to abandoned
// calls are dropped.
func (c *Client) await(id string) (*Packet, error) {
	buf := make([]byte, 4096)
	for {
		for len(c.pending) > 0 {
			p := c.pending[0]
			c.pending = c.pending[1:]
			if p.ID == id {
				return p, nil
			}
		}
		n, err := c.conn.Read(buf)
		if n > 0 {
			pkts, ferr := c.buf.Feed(buf[:n])
			c.pending = append(c.pending, pkts...)
			if ferr != nil {
				return nil, ferr
			}
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}

func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return context.DeadlineExceeded
	}
	return err
}
