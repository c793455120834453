package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx, "blocklist", "remote")
	if err != nil {
		t.Fatalf("get on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no values, got %v", got)
	}

	if err := s.Set(ctx, Values{
		"blocklist": []byte(`{"keywords":["a"],"channels":[]}`),
		"remote":    []byte(`{"enabled":false}`),
	}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err = s.Get(ctx, "blocklist", "isDebugMode")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got["blocklist"]) != `{"keywords":["a"],"channels":[]}` {
		t.Errorf("unexpected blocklist value %q", got["blocklist"])
	}
	if _, ok := got["isDebugMode"]; ok {
		t.Error("expected isDebugMode to be absent")
	}
	if _, ok := got["remote"]; ok {
		t.Error("expected only requested keys to be returned")
	}

	if err := s.Set(ctx, Values{"blocklist": []byte(`{"keywords":[],"channels":["b"]}`)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = s.Get(ctx, "blocklist", "remote")
	if err != nil {
		t.Fatalf("get after replace: %v", err)
	}
	if string(got["blocklist"]) != `{"keywords":[],"channels":["b"]}` {
		t.Errorf("expected blocklist to be replaced wholesale, got %q", got["blocklist"])
	}
	if string(got["remote"]) != `{"enabled":false}` {
		t.Errorf("expected remote to be untouched, got %q", got["remote"])
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte(`true`)
	if err := m.Set(context.Background(), Values{"isDebugMode": value}); err != nil {
		t.Fatal(err)
	}
	value[0] = 'x'

	got, _ := m.Get(context.Background(), "isDebugMode")
	if string(got["isDebugMode"]) != "true" {
		t.Errorf("stored value changed through caller slice: %q", got["isDebugMode"])
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "videogate.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videogate.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, Values{"isDebugMode": []byte("true")}); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "isDebugMode")
	if err != nil {
		t.Fatal(err)
	}
	if string(got["isDebugMode"]) != "true" {
		t.Errorf("expected persisted value, got %q", got["isDebugMode"])
	}
}

func TestPostgresGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT key, value FROM kv WHERE key = ANY\(\$1\)`).
		WithArgs([]string{"blocklist", "remote"}).
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}).
			AddRow("blocklist", []byte(`{"keywords":["x"],"channels":[]}`)))

	got, err := NewPostgres(mock).Get(context.Background(), "blocklist", "remote")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got["blocklist"]) != `{"keywords":["x"],"channels":[]}` {
		t.Errorf("unexpected value %q", got["blocklist"])
	}
	if _, ok := got["remote"]; ok {
		t.Error("expected remote to be absent")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT key, value FROM kv`).
		WithArgs([]string{"remote"}).
		WillReturnError(errors.New("connection refused"))

	if _, err := NewPostgres(mock).Get(context.Background(), "remote"); err == nil {
		t.Fatal("expected error when query fails")
	}
}

func TestPostgresSet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO kv`).
		WithArgs([]string{"isDebugMode"}, []string{"true"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := NewPostgres(mock).Set(context.Background(), Values{"isDebugMode": []byte("true")}); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSetEmptyIsNoop(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	if err := NewPostgres(mock).Set(context.Background(), Values{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database call: %v", err)
	}
}

func TestOpenRedisInvalidURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not-a-redis-url"); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}
