// Package orderbook implements the single-instrument price-time-priority
// limit order book and matching engine. It performs no I/O, takes no
// locks, and is meant to be driven exclusively by one goroutine (the
// pipeline consumer) — see package pipeline.
package orderbook

import "lobcore/domain"

// OrderBook is the two-sided priced book plus the order pool and id
// index backing it. The zero value is not usable; construct with
// NewOrderBook.
type OrderBook struct {
	pool    *pool
	idIndex map[domain.OrderId]uint32
	bids    *priceBook
	asks    *priceBook
	nextID  uint64
}

// NewOrderBook returns an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		pool:    newPool(),
		idIndex: make(map[domain.OrderId]uint32),
		bids:    newBidBook(),
		asks:    newAskBook(),
	}
}

// AddLimit allocates a fresh monotonically increasing order id and
// submits a limit order under it. qty<=0 is a no-op that returns id 0
// and a zero-filled MatchResult.
func (b *OrderBook) AddLimit(side domain.Side, price domain.Price, qty domain.Quantity) (domain.OrderId, domain.MatchResult) {
	if qty <= 0 {
		return 0, domain.MatchResult{Requested: qty, Remaining: qty}
	}
	b.nextID++
	return b.AddLimitWithID(domain.OrderId(b.nextID), side, price, qty)
}

// AddLimitWithID submits a limit order under an explicit id. If id is
// already resting, the existing order is superseded: tombstoned, freed
// and removed from the id index before the new order is processed (see
// SPEC_FULL.md's tombstone-discipline decision for why this is eager
// rather than lazy).
//
// The incoming order first runs a taker pass against the opposite book.
// Residual quantity greater than zero rests in the book under id; a
// residual of zero means the order fully matched as taker and nothing
// is inserted. The returned MatchResult describes that taker pass.
func (b *OrderBook) AddLimitWithID(id domain.OrderId, side domain.Side, price domain.Price, qty domain.Quantity) (domain.OrderId, domain.MatchResult) {
	if id == 0 || qty <= 0 {
		return 0, domain.MatchResult{Requested: qty, Remaining: qty}
	}

	if idx, exists := b.idIndex[id]; exists {
		b.supersede(id, idx)
	}

	var residual domain.Quantity
	var trades []domain.Trade
	if side == domain.Buy {
		residual, trades = b.match(b.asks, qty, func(p domain.Price) bool { return p <= price }, side)
	} else {
		residual, trades = b.match(b.bids, qty, func(p domain.Price) bool { return p >= price }, side)
	}

	result := domain.MatchResult{
		Requested: qty,
		Filled:    qty - residual,
		Remaining: residual,
		Trades:    trades,
	}

	if residual == 0 {
		return id, result
	}

	order := domain.Order{ID: id, Side: side, Price: price, Qty: residual, Active: true}
	idx := b.pool.alloc(order)
	level := b.bookFor(side).getOrCreate(price)
	level.Indices = append(level.Indices, idx)
	b.idIndex[id] = idx

	return id, result
}

// supersede tombstones and frees the order currently occupying idx under
// id, eagerly removing its stale index from whichever Level it rests in.
func (b *OrderBook) supersede(id domain.OrderId, idx uint32) {
	old := b.pool.at(idx)
	side, price := old.Side, old.Price
	old.Active = false
	old.Qty = 0

	if level, ok := b.bookFor(side).get(price); ok {
		level.removeIndex(idx)
		if len(level.Indices) == 0 {
			b.bookFor(side).remove(price)
		}
	}

	b.pool.release(idx)
	delete(b.idIndex, id)
}

// Cancel logically removes a resting order. Returns false without any
// observable effect if id is unknown or already inactive.
func (b *OrderBook) Cancel(id domain.OrderId) bool {
	idx, exists := b.idIndex[id]
	if !exists {
		return false
	}

	order := b.pool.at(idx)
	if !order.Active || order.Qty <= 0 {
		delete(b.idIndex, id)
		return false
	}

	side, price := order.Side, order.Price
	order.Active = false
	order.Qty = 0

	if level, ok := b.bookFor(side).get(price); ok {
		level.removeIndex(idx)
		if len(level.Indices) == 0 {
			b.bookFor(side).remove(price)
		}
	}

	b.pool.release(idx)
	delete(b.idIndex, id)
	return true
}

// Market executes a market order against the opposite side's resting
// liquidity, sweeping price levels from best outward until qty is
// exhausted or the opposite side runs dry. qty<=0 is a no-op.
func (b *OrderBook) Market(side domain.Side, qty domain.Quantity) domain.MatchResult {
	if qty <= 0 {
		return domain.MatchResult{Requested: qty, Remaining: qty}
	}

	opposite := b.asks
	if side == domain.Sell {
		opposite = b.bids
	}

	residual, trades := b.match(opposite, qty, func(domain.Price) bool { return true }, side)
	return domain.MatchResult{
		Requested: qty,
		Filled:    qty - residual,
		Remaining: residual,
		Trades:    trades,
	}
}

// BestBid reports the leading (highest-price) bid level.
func (b *OrderBook) BestBid() domain.LevelInfo {
	return b.quote(b.bids)
}

// BestAsk reports the leading (lowest-price) ask level.
func (b *OrderBook) BestAsk() domain.LevelInfo {
	return b.quote(b.asks)
}

func (b *OrderBook) quote(pb *priceBook) domain.LevelInfo {
	level, ok := pb.leading()
	if !ok {
		return domain.LevelInfo{}
	}

	var qty domain.Quantity
	for _, idx := range level.Indices {
		order := b.pool.at(idx)
		if order.Active && order.Qty > 0 {
			qty += order.Qty
		}
	}
	if qty == 0 {
		return domain.LevelInfo{}
	}
	return domain.LevelInfo{Valid: true, Price: level.Price, Qty: qty}
}

// Empty reports whether both sides of the book have no resting levels.
func (b *OrderBook) Empty() bool {
	return b.bids.empty() && b.asks.empty()
}

// Clear empties both books, the pool, the id index, and resets the id
// counter.
func (b *OrderBook) Clear() {
	b.pool.clear()
	b.idIndex = make(map[domain.OrderId]uint32)
	b.bids = newBidBook()
	b.asks = newAskBook()
	b.nextID = 0
}

func (b *OrderBook) bookFor(side domain.Side) *priceBook {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// match is the unified matching routine described in spec.md §4.1: it
// drives both Market and the taker pass of AddLimitWithID off the same
// code so price-time priority and trade emission can't drift between
// the two callers. It sweeps pb's leading level outward while
// shouldCross allows it, compacting tombstoned entries out of each
// level's index slice as it goes, and emits a Trade per maker fill on
// both paths.
func (b *OrderBook) match(pb *priceBook, qty domain.Quantity, shouldCross func(domain.Price) bool, takerSide domain.Side) (domain.Quantity, []domain.Trade) {
	var trades []domain.Trade

	for qty > 0 {
		level, ok := pb.leading()
		if !ok || !shouldCross(level.Price) {
			break
		}

		write := 0
		indices := level.Indices
		for i := 0; i < len(indices); i++ {
			idx := indices[i]
			order := b.pool.at(idx)

			if !order.Active || order.Qty <= 0 {
				continue // tombstone: dropped, not copied forward
			}

			traded := min(qty, order.Qty)
			order.Qty -= traded
			qty -= traded
			trades = append(trades, domain.Trade{
				MakerID:   order.ID,
				TakerSide: takerSide,
				Price:     level.Price,
				Qty:       traded,
			})

			if order.Qty == 0 {
				order.Active = false
				b.pool.release(idx)
				delete(b.idIndex, order.ID)
			} else {
				indices[write] = idx
				write++
			}

			if qty == 0 {
				// Preserve FIFO order of the untouched remainder.
				for j := i + 1; j < len(indices); j++ {
					indices[write] = indices[j]
					write++
				}
				break
			}
		}

		level.Indices = indices[:write]
		if len(level.Indices) == 0 {
			pb.remove(level.Price)
		}
	}

	return qty, trades
}
