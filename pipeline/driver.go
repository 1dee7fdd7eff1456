// Package pipeline wires a producer goroutine generating Events, a
// bounded SPSC ring, and a consumer goroutine driving an OrderBook, with
// end-to-end latency measurement and deterministic shutdown via an End
// sentinel. Grounded in the teacher's MatchingEngine.Start /
// StartInputDistributor goroutine split and in the reference
// implementation's mt_bench_main.cpp two-thread harness.
package pipeline

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"lobcore/domain"
	"lobcore/orderbook"
	"lobcore/ring"
)

// Generator produces the next event to feed into the pipeline. It
// returns ok=false once there are no more events; the driver then
// appends the End sentinel on the producer's behalf.
type Generator func() (domain.Event, bool)

// Stats is what Run returns: how much was processed, how long it took,
// and the distribution of per-event queue-to-dispatch latency.
type Stats struct {
	Processed  uint64
	Elapsed    time.Duration
	Throughput float64 // events per second
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
}

// Driver owns the ring and the order book it drives. The order book is
// touched exclusively by the consumer goroutine spawned from Run; the
// caller must not touch it concurrently with a Run in flight.
type Driver struct {
	book *orderbook.OrderBook
	cfg  Config
}

// NewDriver builds a driver around an existing order book (typically
// fresh, via orderbook.NewOrderBook).
func NewDriver(book *orderbook.OrderBook, cfg Config) *Driver {
	return &Driver{book: book, cfg: cfg}
}

// Run spawns the producer and consumer goroutines, feeds events from
// generate through the ring into the order book, and blocks until both
// have joined: the producer after emitting its final event plus the End
// sentinel, the consumer after observing End (or producer-done +
// ring-empty).
func (d *Driver) Run(generate Generator) Stats {
	r := ring.New[domain.TimedEvent](d.cfg.RingCapacity)

	var producerDone atomic.Bool
	var processed atomic.Uint64
	var latencies []int64

	var wg sync.WaitGroup
	wg.Add(2)

	start := time.Now()

	go d.produce(r, generate, &producerDone, &wg)
	go d.consume(r, &producerDone, &processed, &latencies, &wg)

	wg.Wait()
	elapsed := time.Since(start)

	samples := latencies
	if d.cfg.WarmupEvents > 0 && d.cfg.WarmupEvents < len(samples) {
		samples = samples[d.cfg.WarmupEvents:]
	} else if d.cfg.WarmupEvents >= len(samples) {
		samples = nil
	}

	stats := Stats{
		Processed: processed.Load(),
		Elapsed:   elapsed,
		P50:       percentile(samples, 50),
		P95:       percentile(samples, 95),
		P99:       percentile(samples, 99),
	}
	if elapsed > 0 {
		stats.Throughput = float64(stats.Processed) / elapsed.Seconds()
	}
	return stats
}

func (d *Driver) produce(r *ring.Ring[domain.TimedEvent], generate Generator, producerDone *atomic.Bool, wg *sync.WaitGroup) {
	defer wg.Done()

	var seq uint64
	for {
		ev, ok := generate()
		if !ok {
			break
		}
		te := domain.TimedEvent{
			Event:     ev,
			SeqID:     seq,
			EnqueueTs: time.Now().UnixNano(),
		}
		for !r.Push(te) {
			runtime.Gosched()
		}
		seq++
	}

	end := domain.TimedEvent{Event: domain.Event{Type: domain.End}, SeqID: seq}
	for !r.Push(end) {
		runtime.Gosched()
	}
	producerDone.Store(true)
}

func (d *Driver) consume(r *ring.Ring[domain.TimedEvent], producerDone *atomic.Bool, processed *atomic.Uint64, latencies *[]int64, wg *sync.WaitGroup) {
	defer wg.Done()

	samples := make([]int64, 0, 1024)

	progressEvery := d.cfg.ProgressInterval
	if progressEvery == 0 {
		progressEvery = 1000
	}

	for {
		te, ok := r.Pop()
		if !ok {
			if producerDone.Load() && r.Empty() {
				break
			}
			runtime.Gosched()
			continue
		}

		if te.Event.Type == domain.End {
			break
		}

		samples = append(samples, time.Now().UnixNano()-te.EnqueueTs)

		switch te.Event.Type {
		case domain.Add:
			if te.Event.ID == 0 {
				d.book.AddLimit(te.Event.Side, te.Event.Price, te.Event.Qty)
			} else {
				d.book.AddLimitWithID(te.Event.ID, te.Event.Side, te.Event.Price, te.Event.Qty)
			}
		case domain.Market:
			d.book.Market(te.Event.Side, te.Event.Qty)
		case domain.Cancel:
			d.book.Cancel(te.Event.ID)
		}

		n := processed.Add(1)
		if d.cfg.OnProgress != nil && n%progressEvery == 0 {
			d.cfg.OnProgress(n, r.Occupancy())
		}
	}

	*latencies = samples
}

// percentile implements the same sorted-sample linear interpolation as
// the reference implementation's utils/benchmark.hpp percentile().
func percentile(samples []int64, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}

	sorted := append([]int64(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p <= 0 {
		return time.Duration(sorted[0])
	}
	if p >= 100 {
		return time.Duration(sorted[len(sorted)-1])
	}

	pos := (p / 100) * float64(len(sorted)-1)
	idx := int(pos)
	frac := pos - float64(idx)

	if idx+1 < len(sorted) {
		v := float64(sorted[idx]) + frac*float64(sorted[idx+1]-sorted[idx])
		return time.Duration(v)
	}
	return time.Duration(sorted[idx])
}
