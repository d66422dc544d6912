//go:build integration
// +build integration

package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
	"github.com/guttosm/stockpulse/internal/storage"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "stockpulse",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=stockpulse sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", host, port.Port(), "stockpulse")
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return db
}

// providerStub answers like Alpha Vantage with one AAPL bar for 2023-03-10.
func providerStub(t *testing.T, closing *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "AAPL" {
			_, _ = fmt.Fprint(w, `{"Error Message": "Invalid API call."}`)
			return
		}
		_, _ = fmt.Fprintf(w, `{"Time Series (Daily)": {"2023-03-10": {"1. open": "150.2100", "4. close": %q, "6. volume": "68524400"}}}`, *closing)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestJob_Integration_UpsertTwice(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()
	db := openDB(t, dsn)
	defer db.Close()

	ctx := context.Background()
	if err := storage.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	closing := "148.5000"
	srv := providerStub(t, &closing)
	client := alphavantage.NewClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "demo", Timeout: 5 * time.Second})
	repo := storage.NewPriceRepository(db)

	run := func() {
		t.Helper()
		job := NewJob(client, repo, config.IngestionConfig{Symbols: []string{"AAPL"}, WindowDays: 14, Parallel: 1})
		job.now = func() time.Time { return time.Date(2023, 3, 12, 9, 0, 0, 0, time.UTC) }
		sum, err := job.Run(ctx)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(sum.Failed()) != 0 {
			t.Fatalf("unexpected failures: %+v", sum.Failed())
		}
	}

	run()
	closing = "149.0000"
	run()

	var (
		cnt int
		got string
	)
	if err := db.QueryRow(`SELECT COUNT(*), MAX(close_price)::text FROM financial_data WHERE symbol='AAPL' AND date='2023-03-10'`).Scan(&cnt, &got); err != nil {
		t.Fatalf("query: %v", err)
	}
	if cnt != 1 || got != "149.00" {
		t.Fatalf("want one row with close 149.00, got %d rows close %s", cnt, got)
	}

	// unknown symbol aborts the run with a FetchError
	job := NewJob(client, repo, config.IngestionConfig{Symbols: []string{"NOPE"}})
	if _, err := job.Run(ctx); err == nil {
		t.Fatalf("expected fetch error for unknown symbol")
	}
}
