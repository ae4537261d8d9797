package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/csvload/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}
	return store
}

func TestBuildInsertSQL(t *testing.T) {
	got := buildInsertSQL(2)
	want := "INSERT INTO users (name, age, address, additional_info) VALUES (?, ?, ?, ?), (?, ?, ?, ?)"
	if got != want {
		t.Errorf("buildInsertSQL(2) = %q, want %q", got, want)
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Error("expected error for empty DSN")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	n, err := store.InsertUsers(ctx, []core.UserRow{
		{Name: "Aarav Sharma", Age: 28, Address: json.RawMessage(`{"city":"Pune"}`)},
		{Name: "Jane Roe", Age: 65, AdditionalInfo: json.RawMessage(`{"gender":"female"}`)},
		{Name: "Max Moe", Age: 12},
	})
	if err != nil {
		t.Fatalf("InsertUsers() error: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}

	ages, err := store.Ages(ctx)
	if err != nil {
		t.Fatalf("Ages() error: %v", err)
	}
	if len(ages) != 3 || ages[0] != 12 || ages[2] != 65 {
		t.Errorf("Ages() = %v, want [12 28 65]", ages)
	}

	users, err := store.ListUsers(ctx, 2)
	if err != nil {
		t.Fatalf("ListUsers() error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("ListUsers(2) returned %d users", len(users))
	}
	if users[0].Name != "Aarav Sharma" || users[0].ID != 1 {
		t.Errorf("first user = %+v", users[0])
	}
	if string(users[0].Address) != `{"city":"Pune"}` || users[0].AdditionalInfo != nil {
		t.Errorf("first user json = %s / %s", users[0].Address, users[0].AdditionalInfo)
	}
	if users[0].CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}

	deleted, err := store.DeleteUsers(ctx)
	if err != nil || deleted != 3 {
		t.Errorf("DeleteUsers() = %d, %v; want 3", deleted, err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestStore_LoadThroughPipeline(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	users := make([]core.User, 25)
	for i := range users {
		users[i] = core.User{Name: "U", Age: i * 3}
	}

	n, err := core.Load(ctx, users, 10, store, nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if n != 25 {
		t.Errorf("Load() = %d, want 25", n)
	}

	dist, err := core.ReadAgeDistribution(ctx, store)
	if err != nil {
		t.Fatalf("ReadAgeDistribution() error: %v", err)
	}
	if dist.Total != 25 {
		t.Errorf("Total = %d, want 25", dist.Total)
	}
}

func TestStore_InsertFailureRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.db.ExecContext(ctx, "DROP TABLE users"); err != nil {
		t.Fatal(err)
	}

	_, err := core.Load(ctx, []core.User{{Name: "A", Age: 1}}, 10, store, nil)
	var sinkErr *core.SinkError
	if !errors.As(err, &sinkErr) {
		t.Fatalf("error = %v, want *core.SinkError", err)
	}
	if sinkErr.Committed != 0 {
		t.Errorf("Committed = %d, want 0", sinkErr.Committed)
	}
}
