// Package inventory collects reproducibility fingerprints of provisioned
// environments for downstream cache-key derivation.
package inventory

import (
	"sync"
	"time"
)

// Record is one fingerprint entry. For package-manager records Name is the
// manager name and Version its reported version; for software records Name
// is the environment path relative to the workspace root and Version is
// empty. Digest is stable for identical installed content.
type Record struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Digest  string `json:"digest"`
}

// Inventory is an append-only pair of record lists, one per successful
// install. Safe for concurrent appends from independent provisioners.
type Inventory struct {
	mu       sync.Mutex
	pkgman   []Record
	software []Record
	updated  time.Time
}

func New() *Inventory { return &Inventory{} }

// AppendPackageManager records the package-manager implementation used.
func (i *Inventory) AppendPackageManager(r Record) {
	i.mu.Lock()
	i.pkgman = append(i.pkgman, r)
	i.updated = time.Now().UTC()
	i.mu.Unlock()
}

// AppendSoftware records a provisioned environment's content digest.
func (i *Inventory) AppendSoftware(r Record) {
	i.mu.Lock()
	i.software = append(i.software, r)
	i.updated = time.Now().UTC()
	i.mu.Unlock()
}

// PackageManagers returns a copy of the package-manager records.
func (i *Inventory) PackageManagers() []Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]Record(nil), i.pkgman...)
}

// Software returns a copy of the software records.
func (i *Inventory) Software() []Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]Record(nil), i.software...)
}

// UpdatedAt returns the time of the last append, zero when empty.
func (i *Inventory) UpdatedAt() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.updated
}
