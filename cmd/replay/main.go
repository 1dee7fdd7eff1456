package main

import (
	"fmt"
	"os"

	"lobcore/domain"
	"lobcore/internal/observability"
	"lobcore/orderbook"
	"lobcore/replay"
)

func main() {
	logger := observability.NewLogger("replay")

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: replay <script-path>")
		os.Exit(1)
	}
	path := os.Args[1]

	f, err := os.Open(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to open script")
		os.Exit(1)
	}
	defer f.Close()

	script, err := replay.Parse(f)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to parse script")
		os.Exit(1)
	}

	book := orderbook.NewOrderBook()
	generate := script.Generator()
	applied := 0
	for {
		ev, ok := generate()
		if !ok {
			break
		}
		switch ev.Type {
		case domain.Add:
			if ev.ID == 0 {
				book.AddLimit(ev.Side, ev.Price, ev.Qty)
			} else {
				book.AddLimitWithID(ev.ID, ev.Side, ev.Price, ev.Qty)
			}
		case domain.Market:
			book.Market(ev.Side, ev.Qty)
		case domain.Cancel:
			book.Cancel(ev.ID)
		}
		applied++
	}

	logger.Info().Str("path", path).Int("events", applied).Msg("replay complete")

	bid, ask := book.BestBid(), book.BestAsk()
	fmt.Printf("events applied: %d\n", applied)
	fmt.Printf("best bid: %s\n", formatQuote(bid))
	fmt.Printf("best ask: %s\n", formatQuote(ask))
}

func formatQuote(q domain.LevelInfo) string {
	if !q.Valid {
		return "none"
	}
	return fmt.Sprintf("price=%d qty=%d", q.Price, q.Qty)
}
