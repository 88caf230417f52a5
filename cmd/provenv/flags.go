package main

import "time"

// SetupFlags Flag structs to decouple cobra from logic for testing.
type SetupFlags struct {
	ConfigPath string
	Env        string
	DryRun     bool
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type InventoryFlags struct {
	ConfigPath string
	Env        string
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type VersionFlags struct {
	ConfigPath string
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type EnvFlags struct {
	ConfigPath string
	Name       string
	Export     bool
}

type ServeFlags struct {
	ConfigPath string
	DryRun     bool
}

type TemplateCreateFlags struct {
	Type   string
	Name   string
	Output string
	Force  bool
}
