package domain

import (
	"math"
	"testing"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

var solBonk = Pair{Base: asset.SOL, Quote: asset.BONK}

func quote(v VenueID, price float64) Quote {
	return Quote{Venue: v, Base: asset.SOL, Quote: asset.BONK, Price: price, FetchedAt: time.Now()}
}

func TestQuote_Valid(t *testing.T) {
	tests := []struct {
		price float64
		want  bool
	}{
		{price: 1.5, want: true},
		{price: 0, want: false},
		{price: -2, want: false},
		{price: math.NaN(), want: false},
		{price: math.Inf(1), want: false},
	}
	for _, tt := range tests {
		if got := quote(VenueJupiter, tt.price).Valid(); got != tt.want {
			t.Errorf("Valid(%v) = %v, want %v", tt.price, got, tt.want)
		}
	}
}

func TestPairQuoteSet_Add(t *testing.T) {
	set := NewPairQuoteSet(solBonk)

	if !set.Add(quote(VenueJupiter, 100)) {
		t.Fatal("first quote rejected")
	}
	if set.Add(quote(VenueJupiter, 101)) {
		t.Error("second quote from the same venue accepted")
	}
	if set.Add(quote(VenueRaydium, 0)) {
		t.Error("zero price accepted")
	}

	other := Quote{Venue: VenueOrca, Base: asset.SOL, Quote: asset.USDC, Price: 150}
	if set.Add(other) {
		t.Error("quote for another pair accepted")
	}

	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
	if q, _ := set.Get(VenueJupiter); q.Price != 100 {
		t.Errorf("kept price %v, want the first one", q.Price)
	}
}

func TestVenueOrder_Less(t *testing.T) {
	o := NewVenueOrder(DefaultVenuePriority)
	ids := []VenueID{"Zeta", VenueMeteora, "Alpha", VenueJupiter, VenueOrca, VenueRaydium}
	o.Sort(ids)

	want := []VenueID{VenueJupiter, VenueRaydium, VenueOrca, VenueMeteora, "Alpha", "Zeta"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestParseVenueID(t *testing.T) {
	if got := ParseVenueID("meteora"); got != VenueMeteora || !got.Known() {
		t.Errorf("ParseVenueID(meteora) = %q", got)
	}
	if got := ParseVenueID("phoenix"); got != "phoenix" || got.Known() {
		t.Errorf("ParseVenueID(phoenix) = %q, known=%v", got, got.Known())
	}
}

func TestParsePair(t *testing.T) {
	reg := asset.DefaultRegistry()

	p, err := ParsePair("SOL/bonk", reg)
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}
	if p.String() != "SOL/BONK" || !p.Token().Equals(asset.BONK) {
		t.Errorf("got %s, token %s", p, p.Token())
	}

	for _, bad := range []string{"SOL", "SOL/NOPE", "SOL/SOL"} {
		if _, err := ParsePair(bad, reg); err == nil {
			t.Errorf("ParsePair(%q) expected error", bad)
		}
	}
}
