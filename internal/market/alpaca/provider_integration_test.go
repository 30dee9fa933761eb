//go:build integration

package alpaca

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	"omni_pulse/internal/market"
)

func setupTestEnv(t *testing.T) {
	key := os.Getenv("TEST_APCA_API_KEY_ID")
	secret := os.Getenv("TEST_APCA_API_SECRET_KEY")

	if key == "" || secret == "" {
		t.Skip("Skipping integration test: TEST_APCA credentials not set")
	}

	t.Setenv("APCA_API_KEY_ID", key)
	t.Setenv("APCA_API_SECRET_KEY", secret)
}

func TestIntegration_LatestPrice(t *testing.T) {
	setupTestEnv(t)

	price, err := NewProvider("", "").LatestPrice("XLK")
	if err != nil {
		t.Fatalf("LatestPrice failed: %v", err)
	}
	if price <= 0 {
		t.Errorf("Expected positive price, got %f", price)
	}
}

func TestIntegration_ReanchorSectors(t *testing.T) {
	setupTestEnv(t)

	store := market.NewStore(market.DefaultUniverse())
	mapping, err := ParseMapping("xlk=XLK,xlf=XLF")
	if err != nil {
		t.Fatal(err)
	}

	n := NewSeeder(NewProvider("", ""), mapping, logrus.New()).Reanchor(store)
	if n != 2 {
		t.Errorf("Expected 2 re-anchored assets, got %d", n)
	}
}
