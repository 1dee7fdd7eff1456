package main

import (
	"fmt"
	"runtime"

	"github.com/google/uuid"

	"lobcore/domain"
	"lobcore/internal/observability"
	"lobcore/orderbook"
	"lobcore/pipeline"
	"lobcore/ring"
)

// xorshiftRand is the fast non-cryptographic PRNG the reference Go
// example (femto_go) uses for synthetic benchmark traffic, kept as
// per-generator state rather than a package global so concurrent
// benchmark runs never share mutable state.
type xorshiftRand struct {
	state uint64
}

func newXorshiftRand(seed uint64) *xorshiftRand {
	if seed == 0 {
		seed = 1
	}
	return &xorshiftRand{state: seed}
}

func (r *xorshiftRand) next() uint32 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 7
	r.state ^= r.state << 17
	return uint32(r.state)
}

// syntheticGenerator produces a mix of resting adds, crossing adds,
// market sweeps and cancels against a recent-order window, the same
// traffic shape as the reference C++ harness's mt_bench_main.cpp.
func syntheticGenerator(n int, seed uint64) pipeline.Generator {
	rng := newXorshiftRand(seed)
	const recentWindow = 256
	recent := make([]domain.OrderId, 0, recentWindow)
	var nextID uint64 = 1
	emitted := 0

	return func() (domain.Event, bool) {
		if emitted >= n {
			return domain.Event{}, false
		}
		emitted++

		roll := rng.next() % 100
		switch {
		case roll < 10 && len(recent) > 0:
			idx := int(rng.next()) % len(recent)
			id := recent[idx]
			recent = append(recent[:idx], recent[idx+1:]...)
			return domain.Event{Type: domain.Cancel, ID: id}, true
		case roll < 20:
			side := domain.Buy
			if rng.next()%2 == 1 {
				side = domain.Sell
			}
			qty := domain.Quantity(1 + rng.next()%50)
			return domain.Event{Type: domain.Market, Side: side, Qty: qty}, true
		default:
			side := domain.Buy
			if rng.next()%2 == 1 {
				side = domain.Sell
			}
			price := domain.Price(100 + rng.next()%200)
			qty := domain.Quantity(1 + rng.next()%50)
			id := domain.OrderId(nextID)
			nextID++
			if len(recent) >= recentWindow {
				recent = recent[1:]
			}
			recent = append(recent, id)
			return domain.Event{Type: domain.Add, Side: side, Price: price, Qty: qty, ID: id}, true
		}
	}
}

func main() {
	logger := observability.NewLogger("benchmark")
	runID := uuid.New().String()

	const eventCount = 2_000_000
	cfg := pipeline.Config{RingCapacity: ring.Large(eventCount / 4), WarmupEvents: eventCount / 20}

	logger.Info().
		Str("run_id", runID).
		Int("events", eventCount).
		Int("cpu", runtime.NumCPU()).
		Msg("starting benchmark run")

	book := orderbook.NewOrderBook()
	driver := pipeline.NewDriver(book, cfg)
	stats := driver.Run(syntheticGenerator(eventCount, 1))

	logger.Info().
		Str("run_id", runID).
		Uint64("processed", stats.Processed).
		Dur("elapsed", stats.Elapsed).
		Float64("throughput_eps", stats.Throughput).
		Dur("p50", stats.P50).
		Dur("p95", stats.P95).
		Dur("p99", stats.P99).
		Msg("benchmark run complete")

	bid, ask := book.BestBid(), book.BestAsk()
	fmt.Printf("run %s: processed=%d throughput=%.0f/s p50=%s p95=%s p99=%s best_bid=%+v best_ask=%+v\n",
		runID, stats.Processed, stats.Throughput, stats.P50, stats.P95, stats.P99, bid, ask)
}
