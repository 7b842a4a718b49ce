package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/database"
	"github.com/playperu/attractionmap/internal/migrations"
	"github.com/playperu/attractionmap/internal/store"
)

func setupStore(t *testing.T) *store.AttractionStore {
	t.Helper()
	db, err := database.Open(context.Background(), database.Memory)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return store.New(db)
}

func TestSeedAndList(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	n, err := s.Seed(ctx, attractions.Demo())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 seeded, got %d", n)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := attractions.Demo()
	if len(got) != len(want) {
		t.Fatalf("expected %d attractions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSeedIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	if _, err := s.Seed(ctx, attractions.Demo()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	n, err := s.Seed(ctx, attractions.Demo())
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no rows on second seed, got %d", n)
	}
	if c, _ := s.Count(ctx); c != 8 {
		t.Errorf("expected 8 rows, got %d", c)
	}
}

func TestSeedRejectsInvalid(t *testing.T) {
	s := setupStore(t)
	bad := attractions.Demo()[:1]
	bad[0].Rating = 7

	if _, err := s.Seed(context.Background(), bad); !errors.Is(err, attractions.ErrInvalidAttraction) {
		t.Fatalf("expected ErrInvalidAttraction, got %v", err)
	}
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	if _, err := s.Seed(ctx, attractions.Demo()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr error
	}{
		{name: "landmark", id: "1", want: "Statue of Liberty"},
		{name: "free", id: "5", want: "Brooklyn Bridge"},
		{name: "missing", id: "42", wantErr: store.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := s.Get(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if a.Name != tt.want {
				t.Errorf("expected %q, got %q", tt.want, a.Name)
			}
		})
	}
}
