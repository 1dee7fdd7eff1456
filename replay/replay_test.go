package replay

import (
	"strings"
	"testing"

	"lobcore/domain"
	"lobcore/orderbook"
)

func TestParseRecognizesAllLineForms(t *testing.T) {
	input := `# comment line
ADD,BUY,100,5,42
ADD,SELL,105,3

MKT,BUY,2
MARKET,SELL,1
CANCEL,42
CXL,7
`
	script, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Lines) != 6 {
		t.Fatalf("expected 6 parsed lines, got %d", len(script.Lines))
	}

	want := []domain.EventType{domain.Add, domain.Add, domain.Market, domain.Market, domain.Cancel, domain.Cancel}
	for i, w := range want {
		if script.Lines[i].Event.Type != w {
			t.Errorf("line %d: expected type %v, got %v", i, w, script.Lines[i].Event.Type)
		}
	}

	first := script.Lines[0].Event
	if first.Side != domain.Buy || first.Price != 100 || first.Qty != 5 || first.ID != 42 {
		t.Errorf("unexpected first event: %+v", first)
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := `ADD,BUY,100,5
ADD,NOTASIDE,100,5
ADD,BUY,notanumber,5
GARBAGE LINE
MKT,BUY
CANCEL,notanid
CANCEL,9
`
	script, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Lines) != 2 {
		t.Fatalf("expected 2 surviving lines, got %d: %+v", len(script.Lines), script.Lines)
	}
	if script.Lines[0].Event.Type != domain.Add {
		t.Errorf("expected first surviving line to be ADD, got %v", script.Lines[0].Event.Type)
	}
	if script.Lines[1].Event.Type != domain.Cancel || script.Lines[1].Event.ID != 9 {
		t.Errorf("expected second surviving line to be CANCEL,9, got %+v", script.Lines[1].Event)
	}
}

func TestAddWithoutIdLeavesZeroValue(t *testing.T) {
	script, err := Parse(strings.NewReader("ADD,SELL,200,10\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(script.Lines))
	}
	if script.Lines[0].Event.ID != 0 {
		t.Errorf("expected zero-value ID when omitted, got %d", script.Lines[0].Event.ID)
	}
}

// TestGeneratorDrivesOrderBook applies a parsed script through Generator
// and checks the resulting book: order 3 fully crosses the ask, the market
// sell hits order 1, and cancelling order 1 leaves only the ask at 105.
func TestGeneratorDrivesOrderBook(t *testing.T) {
	input := `ADD,BUY,100,5,1
ADD,SELL,105,3,2
ADD,BUY,106,2,3
MKT,SELL,4
CANCEL,1
`
	script, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	book := orderbook.NewOrderBook()
	gen := script.Generator()
	for {
		ev, ok := gen()
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
	}

	if book.BestBid().Valid {
		t.Errorf("expected no resting bid after order 1 was canceled and order 3 fully matched, got %+v", book.BestBid())
	}
	ask := book.BestAsk()
	if !ask.Valid || ask.Price != 105 {
		t.Errorf("expected resting ask at 105, got %+v", ask)
	}
}

// TestGeneratorAppliesAddWithoutExplicitId closes the gap a bare
// dispatch on AddLimitWithID would leave: an ADD line with no id field
// parses to Event.ID == 0, which must rest in the book via AddLimit's
// auto-assigned id rather than silently vanish as "invalid input".
func TestGeneratorAppliesAddWithoutExplicitId(t *testing.T) {
	input := `ADD,BUY,100,5
ADD,SELL,110,3
`
	script, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	book := orderbook.NewOrderBook()
	gen := script.Generator()
	for {
		ev, ok := gen()
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
	}

	bid := book.BestBid()
	if !bid.Valid || bid.Price != 100 || bid.Qty != 5 {
		t.Errorf("expected resting bid 5 @ 100, got %+v", bid)
	}
	ask := book.BestAsk()
	if !ask.Valid || ask.Price != 110 || ask.Qty != 3 {
		t.Errorf("expected resting ask 3 @ 110, got %+v", ask)
	}
}

func TestEmptyScriptYieldsNoLines(t *testing.T) {
	script, err := Parse(strings.NewReader("\n\n# just comments\n\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Lines) != 0 {
		t.Errorf("expected 0 lines, got %d", len(script.Lines))
	}
}
