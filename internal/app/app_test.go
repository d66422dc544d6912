package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guttosm/stockpulse/config"
)

func unreachablePostgres() config.Config {
	return config.Config{Postgres: config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     54329, // unlikely mapped
		User:     "x",
		Password: "y",
		DBName:   "z",
		SSLMode:  "disable",
	}}
}

// stubDB swaps the opener and migrator for the duration of the test.
func stubDB(t *testing.T, db *sql.DB, migrateErr error) {
	t.Helper()
	oldOpen, oldMigrate := postgresOpener, migrator
	postgresOpener = func(config.Config) (*sql.DB, error) { return db, nil }
	migrator = func(context.Context, *sql.DB) error { return migrateErr }
	t.Cleanup(func() {
		postgresOpener, migrator = oldOpen, oldMigrate
	})
}

// TestInitPostgres_InvalidHost expects ping failure.
func TestInitPostgres_InvalidHost(t *testing.T) {
	db, err := InitPostgres(unreachablePostgres())
	if err == nil {
		_ = db.Close()
		t.Fatalf("expected error connecting to invalid DB")
	}
}

// TestInitializeApp_DBFailure ensures InitializeApp returns error when DB cannot connect.
func TestInitializeApp_DBFailure(t *testing.T) {
	r, cleanup, err := InitializeApp(unreachablePostgres())
	if err == nil || r != nil || cleanup != nil {
		if cleanup != nil {
			cleanup()
		}
		t.Fatalf("expected error from InitializeApp with invalid DB config")
	}
}

func TestInitializeApp_MigrationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	mock.ExpectClose()
	stubDB(t, db, errors.New("goose: no such table"))

	r, cleanup, err := InitializeApp(config.Config{})
	if err == nil || r != nil || cleanup != nil {
		t.Fatalf("expected migration error, got err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("pool should be closed on failure: %v", err)
	}
}

func TestInitializeApp_HappyPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	stubDB(t, db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM financial_data")).
		WithArgs("AAPL", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectClose()

	router, cleanup, err := InitializeApp(config.Config{Server: config.ServerConfig{RateLimit: 10, RequestTimeout: time.Second}})
	if err != nil || router == nil || cleanup == nil {
		t.Fatalf("InitializeApp failed: err=%v", err)
	}

	for _, p := range []string{"/healthz", "/readyz", "/financial_data?symbol=aapl"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", p, w.Code, w.Body.String())
		}
	}

	cleanup()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunIngestion_InvalidConfig(t *testing.T) {
	called := false
	old := postgresOpener
	postgresOpener = func(config.Config) (*sql.DB, error) { called = true; return nil, errors.New("unreachable") }
	t.Cleanup(func() { postgresOpener = old })

	_, err := RunIngestion(context.Background(), config.Config{})
	if err == nil {
		t.Fatalf("expected config validation error")
	}
	if called {
		t.Fatalf("database should not be opened with an invalid ingestion config")
	}
}

func TestRunIngestion_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"Time Series (Daily)": {"`+time.Now().UTC().Format("2006-01-02")+`": {"1. open": "10.005", "4. close": "11.00", "6. volume": "42"}}}`)
	}))
	defer srv.Close()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	stubDB(t, db, nil)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO financial_data")).
		ExpectExec().
		WithArgs("IBM", sqlmock.AnyArg(), "10.01", "11", int64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ingestion_log")).
		WithArgs("IBM", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	cfg := config.Config{
		Provider:  config.ProviderConfig{BaseURL: srv.URL, APIKey: "demo", Timeout: time.Second},
		Ingestion: config.IngestionConfig{Symbols: []string{"IBM"}, WindowDays: 14, Parallel: 1},
	}
	sum, err := RunIngestion(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunIngestion: %v", err)
	}
	if len(sum.Results) != 1 || sum.Results[0].Stored != 1 {
		t.Fatalf("unexpected summary %+v", sum.Results)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
