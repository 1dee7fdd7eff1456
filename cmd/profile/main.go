package main

import (
	"net/http"
	"os"
	"runtime/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lobcore/domain"
	"lobcore/internal/observability"
	"lobcore/orderbook"
	"lobcore/pipeline"
	"lobcore/ring"
)

var (
	processedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lobcore_profile_events_processed",
		Help: "Events applied to the order book so far in this profiling run.",
	})
	occupancyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lobcore_profile_ring_occupancy",
		Help: "Current number of queued elements in the pipeline's SPSC ring.",
	})
)

func init() {
	prometheus.MustRegister(processedGauge, occupancyGauge)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe()
}

func main() {
	logger := observability.NewLogger("profile")

	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create cpu profile file")
	}
	defer cpuFile.Close()

	pprof.StartCPUProfile(cpuFile)
	defer pprof.StopCPUProfile()

	metricsAddr := os.Getenv("LOBCORE_METRICS_ADDR")
	if metricsAddr != "" {
		serveMetrics(metricsAddr)
		logger.Info().Str("addr", metricsAddr).Msg("serving /metrics")
	}

	const eventCount = 20_000_000
	cfg := pipeline.Config{
		RingCapacity:     ring.Small,
		WarmupEvents:     eventCount / 50,
		ProgressInterval: 100_000,
		OnProgress: func(processed uint64, occupancy int) {
			processedGauge.Set(float64(processed))
			occupancyGauge.Set(float64(occupancy))
		},
	}

	book := orderbook.NewOrderBook()
	driver := pipeline.NewDriver(book, cfg)

	logger.Info().
		Int("events", eventCount).
		Int("ring_capacity", cfg.RingCapacity).
		Msg("starting profiling run")

	start := time.Now()
	stats := driver.Run(profilingGenerator(eventCount))
	elapsed := time.Since(start)

	logger.Info().
		Uint64("processed", stats.Processed).
		Dur("elapsed", elapsed).
		Float64("throughput_eps", stats.Throughput).
		Dur("p50", stats.P50).
		Dur("p95", stats.P95).
		Dur("p99", stats.P99).
		Msg("profiling run complete; see cpu.prof")
}

// profilingGenerator is a plain xorshift feed, deliberately simpler than
// the benchmark tool's traffic mix: it emits limit adds only (no markets
// or cancels), which keeps the CPU profile readable under pprof.
func profilingGenerator(n int) pipeline.Generator {
	var state uint64 = 88172645463325252
	var nextID uint64 = 1
	emitted := 0
	next := func() uint32 {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		return uint32(state)
	}
	return func() (domain.Event, bool) {
		if emitted >= n {
			return domain.Event{}, false
		}
		emitted++

		side := domain.Buy
		if next()%2 == 1 {
			side = domain.Sell
		}
		price := domain.Price(100 + next()%200)
		qty := domain.Quantity(1 + next()%50)
		id := domain.OrderId(nextID)
		nextID++
		return domain.Event{Type: domain.Add, Side: side, Price: price, Qty: qty, ID: id}, true
	}
}
