// Package rpc serves unit conversion and stock balances over a msgpack
// framed TCP stream.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"freshkeep"
)

// UnitLister lists the unit catalog; both *freshkeep.Registry and
// *freshkeep.Store implement it.
type UnitLister interface {
	ListUnits(ctx context.Context) ([]freshkeep.Unit, error)
}

type Server struct {
	conv  *freshkeep.Converter
	units UnitLister
	log   *zap.Logger

	mu          sync.RWMutex
	inventories map[string]*freshkeep.Inventory
}

func NewServer(conv *freshkeep.Converter, units UnitLister, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		conv:        conv,
		units:       units,
		log:         log,
		inventories: make(map[string]*freshkeep.Inventory),
	}
}

func (s *Server) AddInventory(inv *freshkeep.Inventory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventories[inv.ID] = inv
}

func (s *Server) inventory(id string) (*freshkeep.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.inventories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInventory, id)
	}
	return inv, nil
}

// Serve accepts connections until ctx is cancelled or the listener fails,
// then waits for the open connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	s.log.Info("rpc listening", zap.String("addr", ln.Addr().String()))
	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				acceptErr = err
			}
			break
		}
		g.Go(func() error {
			s.serveConn(ctx, conn)
			return nil
		})
	}
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, net.ErrClosed) && acceptErr == nil {
		acceptErr = err
	}
	return acceptErr
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	log := s.log.With(zap.String("remote", conn.RemoteAddr().String()))
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	var pb PacketBuffer
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			pkts, ferr := pb.Feed(buf[:n])
			for _, pkt := range pkts {
				out, merr := encodePacket(s.Handle(ctx, pkt))
				if merr != nil {
					log.Error("encode response", zap.Error(merr))
					return
				}
				if _, werr := conn.Write(out); werr != nil {
					log.Debug("write response", zap.Error(werr))
					return
				}
			}
			if ferr != nil {
				log.Warn("malformed packet, closing connection", zap.Error(ferr))
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Debug("read", zap.Error(err))
			}
			return
		}
	}
}

// Handle executes one request packet and builds its response.
func (s *Server) Handle(ctx context.Context, pkt *Packet) *Packet {
	resp := &Packet{ID: pkt.ID, Func: pkt.Func}
	result, err := s.dispatch(ctx, pkt)
	if err == nil {
		resp.Body, err = msgpack.Marshal(result)
	}
	if err != nil {
		resp.Code = codeFor(err)
		resp.Err = err.Error()
		resp.Body = nil
		if resp.Code == CodeInternal {
			s.log.Error("rpc call failed", zap.String("func", pkt.Func), zap.Error(err))
		}
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, pkt *Packet) (any, error) {
	switch pkt.Func {
	case "":
		return nil, ErrReqHasNoFunc
	case FuncConvert:
		var req ConvertRequest
		if err := unmarshalArg(pkt.Body, &req); err != nil {
			return nil, err
		}
		q, err := s.conv.ConvertByID(ctx, req.From, req.Quantity, req.To)
		if err != nil {
			return nil, err
		}
		return ConvertResponse{Quantity: q}, nil
	case FuncUnits:
		units, err := s.units.ListUnits(ctx)
		if err != nil {
			return nil, err
		}
		out := UnitsResponse{Units: make([]UnitMsg, 0, len(units))}
		for _, u := range units {
			out.Units = append(out.Units, NewUnitMsg(u))
		}
		return out, nil
	case FuncBalance:
		var req BalanceRequest
		if err := unmarshalArg(pkt.Body, &req); err != nil {
			return nil, err
		}
		inv, err := s.inventory(req.InventoryID)
		if err != nil {
			return nil, err
		}
		unitID := req.UnitID
		if unitID == "" {
			item, ok := inv.Item(req.ItemID)
			if !ok && req.Total {
				item, ok = inv.FindItem(req.ItemID)
			}
			if !ok {
				return nil, fmt.Errorf("%w: %s", freshkeep.ErrUnknownItem, req.ItemID)
			}
			unitID = item.UnitID
		}
		var q float64
		if req.Total {
			q, err = inv.TotalIn(ctx, req.ItemID, unitID)
		} else {
			q, err = inv.BalanceIn(ctx, req.ItemID, unitID)
		}
		if err != nil {
			return nil, err
		}
		return BalanceResponse{Quantity: q, UnitID: unitID}, nil
	case FuncMove:
		var req MoveRequest
		if err := unmarshalArg(pkt.Body, &req); err != nil {
			return nil, err
		}
		inv, err := s.inventory(req.InventoryID)
		if err != nil {
			return nil, err
		}
		tx := freshkeep.Transaction{
			Type:  freshkeep.TransactionTypeAdd,
			Items: []freshkeep.TransactionItem{{ItemID: req.ItemID, Quantity: req.Quantity, UnitID: req.UnitID}},
			Note:  req.Note,
		}
		if req.Remove {
			tx.Type = freshkeep.TransactionTypeRemove
		}
		if req.TimestampMs != 0 {
			tx.Timestamp = time.UnixMilli(req.TimestampMs)
		}
		tx, err = inv.AddTransaction(ctx, tx)
		if err != nil {
			return nil, err
		}
		return MoveResponse{TransactionID: tx.ID, Balance: inv.Balance(req.ItemID).String()}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSuchFunc, pkt.Func)
}

func unmarshalArg(body []byte, v any) error {
	if len(body) == 0 {
		return fmt.Errorf("%w: missing", ErrBadArg)
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArg, err)
	}
	return nil
}
