package inventory

import (
	"sync"
	"testing"
)

func TestAppendAndSnapshot(t *testing.T) {
	inv := New()
	if !inv.UpdatedAt().IsZero() {
		t.Fatalf("fresh inventory should have zero timestamp")
	}
	inv.AppendPackageManager(Record{Name: "pip", Version: "24.0", Digest: "abc"})
	inv.AppendSoftware(Record{Name: "envs/analysis", Digest: "def"})

	pm := inv.PackageManagers()
	if len(pm) != 1 || pm[0].Name != "pip" || pm[0].Version != "24.0" {
		t.Fatalf("unexpected package manager records: %v", pm)
	}
	sw := inv.Software()
	if len(sw) != 1 || sw[0].Name != "envs/analysis" || sw[0].Version != "" {
		t.Fatalf("unexpected software records: %v", sw)
	}
	if inv.UpdatedAt().IsZero() {
		t.Fatalf("timestamp not updated")
	}

	// Snapshots are copies.
	pm[0].Name = "mutated"
	if inv.PackageManagers()[0].Name != "pip" {
		t.Fatalf("snapshot mutation leaked into inventory")
	}
}

func TestConcurrentAppends(t *testing.T) {
	inv := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv.AppendSoftware(Record{Name: "envs/x", Digest: "d"})
		}()
	}
	wg.Wait()
	if len(inv.Software()) != 16 {
		t.Fatalf("lost appends: %d", len(inv.Software()))
	}
}
