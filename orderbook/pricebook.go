package orderbook

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"lobcore/domain"
)

// priceBook is one side of the order book: a price-ordered map from
// Price to Level. BidBook and AskBook are both priceBooks differing only
// in comparator direction, following the design note that the two
// books are "conceptually distinct mappings differing only in key
// ordering" and can share one generic implementation.
//
// Backed by the teacher's own dependency, github.com/emirpasic/gods/v2's
// red-black tree (the same ordered-map primitive price_tree_sharded.go
// used for its bucket index), rather than the teacher's bespoke
// HashMap+doubly-linked-list or bucket-sharded trees: those two
// implementations existed to trade off lookup speed against level-count
// scale, a concern SPEC_FULL.md does not add a configuration knob for,
// so one comparator-driven tree covers every operation this book needs.
type priceBook struct {
	tree *rbt.Tree[domain.Price, *Level]
}

func newBidBook() *priceBook {
	// Highest price first: a "less" result for a higher price makes the
	// tree's leftmost node the best bid.
	cmp := func(a, b domain.Price) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		default:
			return 0
		}
	}
	return &priceBook{tree: rbt.NewWith[domain.Price, *Level](cmp)}
}

func newAskBook() *priceBook {
	cmp := func(a, b domain.Price) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return &priceBook{tree: rbt.NewWith[domain.Price, *Level](cmp)}
}

// leading returns the best level for this side of the book (highest bid
// or lowest ask), or false if the side is empty.
func (pb *priceBook) leading() (*Level, bool) {
	node := pb.tree.Left()
	if node == nil {
		return nil, false
	}
	return node.Value, true
}

func (pb *priceBook) get(price domain.Price) (*Level, bool) {
	return pb.tree.Get(price)
}

// getOrCreate returns the Level at price, creating an empty one if none
// exists yet.
func (pb *priceBook) getOrCreate(price domain.Price) *Level {
	level, ok := pb.tree.Get(price)
	if ok {
		return level
	}
	level = &Level{Price: price}
	pb.tree.Put(price, level)
	return level
}

func (pb *priceBook) remove(price domain.Price) {
	pb.tree.Remove(price)
}

func (pb *priceBook) empty() bool {
	return pb.tree.Empty()
}
