package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestStoreChecker(t *testing.T) {
	t.Parallel()

	down := errors.New("connection refused")
	tests := []struct {
		name    string
		ping    error
		wantErr bool
	}{
		{"reachable", nil, false},
		{"unreachable", down, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := StoreChecker(pingFunc(func(context.Context) error { return tc.ping }))
			if c.Name != "store" {
				t.Errorf("name = %q", c.Name)
			}
			if err := c.Check(context.Background()); (err != nil) != tc.wantErr {
				t.Errorf("Check() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCatalogChecker(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	if err := CatalogChecker(cat).Check(context.Background()); err != nil {
		t.Errorf("embedded catalog: %v", err)
	}
	if err := CatalogChecker(nil).Check(context.Background()); err == nil {
		t.Error("nil catalog should fail")
	}
}

// TestReadyz_StoreDown verifies that a failing store flips /readyz to 503
// and names the failing check.
func TestReadyz_StoreDown(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	h := New(
		StoreChecker(pingFunc(func(context.Context) error { return errors.New("disk gone") })),
		CatalogChecker(cat),
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decode(t, rec)
	if body.Checks["store"].Error != "disk gone" || body.Checks["catalog"].Status != StatusOK {
		t.Errorf("checks = %v", body.Checks)
	}
}
