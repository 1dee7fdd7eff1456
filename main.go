package main

import (
	"fmt"

	"lobcore/domain"
	"lobcore/orderbook"
)

func main() {
	book := orderbook.NewOrderBook()

	sellID, _ := book.AddLimit(domain.Sell, 50000, 100)
	fmt.Printf("resting sell order %d: 100 @ 50000\n", sellID)

	buyID, result := book.AddLimit(domain.Buy, 50000, 50)
	fmt.Printf("buy order %d matched %d/%d requested\n", buyID, result.Filled, result.Requested)
	for _, trade := range result.Trades {
		fmt.Printf("  trade: maker=%d side=%s price=%d qty=%d\n", trade.MakerID, trade.TakerSide, trade.Price, trade.Qty)
	}

	bid, ask := book.BestBid(), book.BestAsk()
	fmt.Printf("best bid: %+v\n", bid)
	fmt.Printf("best ask: %+v\n", ask)
}
