package client

import "time"

// ProvisionResult is the response for provisioning requests.
type ProvisionResult struct {
	OK     bool `json:"ok"`
	DryRun bool `json:"dry_run"`
}

// Environment is one configured software environment.
type Environment struct {
	Name     string   `json:"name"`
	Packages []string `json:"packages"`
}

// InventoryRecord fingerprints one provisioned component.
type InventoryRecord struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Digest  string `json:"digest"`
}

// Inventory is the daemon's in-process inventory.
type Inventory struct {
	PackageManagers []InventoryRecord `json:"package_managers"`
	Software        []InventoryRecord `json:"software"`
}

// StoredRecord is one persisted inventory row.
type StoredRecord struct {
	Env       string    `json:"env"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Version   string    `json:"version,omitempty"`
	Digest    string    `json:"digest"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VersionInfo reports the daemon's package manager version.
type VersionInfo struct {
	PackageManager string `json:"package_manager"`
	Version        string `json:"version"`
}

// Activation holds the shell command and environment for entering a venv.
type Activation struct {
	Command []string `json:"command"`
	Env     []string `json:"env"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
