package credential

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/vectorlink/internal/infrastructure/database"
	"github.com/nerrad567/vectorlink/migrations"
)

func testBundle(deviceID string) *Bundle {
	return &Bundle{
		DeviceID:    deviceID,
		Address:     "192.168.1.50",
		Serial:      "00e20100",
		Certificate: []byte("-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"),
		Token:       "token-" + deviceID,
	}
}

// stores returns every Store implementation so behaviour is checked uniformly.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "credentials.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return map[string]Store{
		"sqlite": NewSQLiteStore(db.DB),
		"memory": NewMemoryStore(),
	}
}

func TestStore_SaveGet(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := testBundle("Vector-A1B2")

			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := store.Get(ctx, "Vector-A1B2")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Address != want.Address || got.Token != want.Token || got.Serial != want.Serial {
				t.Errorf("Get() = %+v, want %+v", got, want)
			}
			if string(got.Certificate) != string(want.Certificate) {
				t.Error("Get() certificate mismatch")
			}
			if got.UpdatedAt.IsZero() {
				t.Error("Get() UpdatedAt should be set by Save")
			}
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "Vector-NONE")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_SaveReplacesAddress(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			original := testBundle("Vector-A1B2")
			if err := store.Save(ctx, original); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			if err := store.Save(ctx, original.WithAddress("10.0.0.9")); err != nil {
				t.Fatalf("Save() replace error = %v", err)
			}

			got, err := store.Get(ctx, "Vector-A1B2")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Address != "10.0.0.9" {
				t.Errorf("Address = %q, want %q", got.Address, "10.0.0.9")
			}
			if original.Address != "192.168.1.50" {
				t.Error("WithAddress must not mutate the original bundle")
			}
		})
	}
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		bundle *Bundle
	}{
		{"nil", nil},
		{"no device id", &Bundle{Certificate: []byte("c"), Token: "t"}},
		{"no certificate", &Bundle{DeviceID: "Vector-A1B2", Token: "t"}},
		{"no token", &Bundle{DeviceID: "Vector-A1B2", Certificate: []byte("c")}},
	}

	for name, store := range stores(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				err := store.Save(context.Background(), tt.bundle)
				if !errors.Is(err, ErrInvalidBundle) {
					t.Errorf("Save() error = %v, want ErrInvalidBundle", err)
				}
			})
		}
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"Vector-C3D4", "Vector-A1B2"} {
				if err := store.Save(ctx, testBundle(id)); err != nil {
					t.Fatalf("Save(%s) error = %v", id, err)
				}
			}

			list, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 2 || list[0].DeviceID != "Vector-A1B2" || list[1].DeviceID != "Vector-C3D4" {
				t.Errorf("List() = %v, want A1B2 then C3D4", list)
			}

			if err := store.Delete(ctx, "Vector-A1B2"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := store.Delete(ctx, "Vector-A1B2"); err != nil {
				t.Fatalf("second Delete() error = %v", err)
			}
			if _, err := store.Get(ctx, "Vector-A1B2"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestBundle_StringRedactsToken(t *testing.T) {
	b := testBundle("Vector-A1B2")
	if s := b.String(); s == "" || strings.Contains(s, b.Token) {
		t.Errorf("String() = %q, must not contain token", s)
	}
}
