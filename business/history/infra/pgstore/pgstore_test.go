package pgstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

// dsn points at a disposable database. ARB_TEST_POSTGRES_DSN overrides the
// container started in TestMain.
var dsn string

func TestMain(m *testing.M) {
	dsn = os.Getenv("ARB_TEST_POSTGRES_DSN")
	if dsn != "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "scanner",
			"POSTGRES_PASSWORD": "scanner",
			"POSTGRES_DB":       "history",
		},
		// The server restarts once after initdb; wait for the second ready line.
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(2 * time.Minute),
	}

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("could not start postgres container: %s", err)
	}

	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("could not get container host: %s", err)
	}
	port, err := pg.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("could not get mapped port: %s", err)
	}
	dsn = fmt.Sprintf("postgres://scanner:scanner@%s:%s/history?sslmode=disable", host, port.Port())

	code := m.Run()
	if err := pg.Terminate(ctx); err != nil {
		log.Printf("could not stop postgres container: %s", err)
	}
	os.Exit(code)
}

func testStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, Config{DSN: dsn, MaxConns: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM history_entries")
		s.Close()
	})
	s.pool.Exec(ctx, "DELETE FROM history_entries")
	return s
}

func bonkEntry(at time.Time, price float64) domain.Entry {
	return domain.NewEntry(at, asset.BONK, map[pricingDomain.VenueID]float64{pricingDomain.VenueJupiter: price}, 150)
}

func TestStore_AppendTrimLoad(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		e := bonkEntry(day.Add(time.Duration(i)*time.Second), float64(i+1))
		if err := s.Append(ctx, e, 3); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Load(ctx, domain.PartitionFor(day, "BONK"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 || got[0].Prices[pricingDomain.VenueJupiter] != 3 {
		t.Errorf("Load = %+v", got)
	}
	if got[0].TokenAddress != asset.BONK.Address().String() {
		t.Errorf("token_address = %q", got[0].TokenAddress)
	}
}

func TestStore_PendingAndMarkArchived(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	for _, tok := range []asset.Token{asset.BONK, asset.JUP} {
		e := domain.NewEntry(day, tok, map[pricingDomain.VenueID]float64{pricingDomain.VenueOrca: 1}, 150)
		if err := s.Append(ctx, e, 1000); err != nil {
			t.Fatal(err)
		}
	}

	bonk := domain.PartitionFor(day, "BONK")
	if err := s.MarkArchived(ctx, bonk); err != nil {
		t.Fatal(err)
	}

	pending, err := s.Pending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := domain.PartitionFor(day, "JUP"); len(pending) != 1 || pending[0] != want {
		t.Errorf("pending = %+v, want only %+v", pending, want)
	}
}

func TestStore_TrimIsPerPartition(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	prev := day.Add(-24 * time.Hour)

	if err := s.Append(ctx, bonkEntry(prev, 7), 1); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Append(ctx, bonkEntry(day.Add(time.Duration(i)*time.Second), float64(i+1)), 2); err != nil {
			t.Fatal(err)
		}
	}

	old, err := s.Load(ctx, domain.PartitionFor(prev, "BONK"))
	if err != nil || len(old) != 1 || old[0].Prices[pricingDomain.VenueJupiter] != 7 {
		t.Errorf("previous day = %+v, %v; trimming must stay inside one partition", old, err)
	}

	cur, err := s.Load(ctx, domain.PartitionFor(day, "BONK"))
	if err != nil || len(cur) != 2 {
		t.Fatalf("current day = %+v, %v", cur, err)
	}
	if cur[0].Prices[pricingDomain.VenueJupiter] != 2 || cur[1].Prices[pricingDomain.VenueJupiter] != 3 {
		t.Errorf("Load order = %v, %v; want oldest surviving first", cur[0].Prices, cur[1].Prices)
	}
	if cur[1].Timestamp <= cur[0].Timestamp || cur[0].ReferencePriceUSD != 150 {
		t.Errorf("round trip lost fields: %+v", cur)
	}
}

func TestStore_Ping(t *testing.T) {
	s := testStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
