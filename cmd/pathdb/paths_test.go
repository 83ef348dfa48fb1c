// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"path/filepath"
	"testing"
)

func TestDataRootFromConfig_Default(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PATHDB_DATA_DIR", "")

	root, err := dataRootFromConfig(&Config{ProjectID: "demo"}, "")
	if err != nil {
		t.Fatalf("dataRootFromConfig() error = %v", err)
	}

	want := filepath.Join(home, ".pathdb", "data")
	if root != want {
		t.Fatalf("dataRootFromConfig() = %q, want %q", root, want)
	}
}

func TestDataRootFromConfig_EnvOverride(t *testing.T) {
	t.Setenv("PATHDB_DATA_DIR", "/tmp/custom-pathdb")

	root, err := dataRootFromConfig(&Config{ProjectID: "demo"}, "")
	if err != nil {
		t.Fatalf("dataRootFromConfig() error = %v", err)
	}
	if root != "/tmp/custom-pathdb" {
		t.Fatalf("dataRootFromConfig() = %q, want %q", root, "/tmp/custom-pathdb")
	}
}

func TestDataRootFromConfig_RelativeLocalDataDir(t *testing.T) {
	t.Setenv("PATHDB_DATA_DIR", "")

	repo := t.TempDir()
	cfg := &Config{
		ProjectID: "demo",
		Sidecar: SidecarConfig{
			LocalDataDir: "./.pathdb/db",
		},
	}

	cfgPath := filepath.Join(repo, ".pathdb", "project.yaml")
	root, err := dataRootFromConfig(cfg, cfgPath)
	if err != nil {
		t.Fatalf("dataRootFromConfig() error = %v", err)
	}

	want := filepath.Join(repo, ".pathdb", ".pathdb", "db")
	if root != want {
		t.Fatalf("dataRootFromConfig() = %q, want %q", root, want)
	}
}

func TestProjectDataDir_AppendsProjectID(t *testing.T) {
	t.Setenv("PATHDB_DATA_DIR", "/tmp/pathdb-root")

	dir, err := projectDataDir(&Config{ProjectID: "my-project"}, "")
	if err != nil {
		t.Fatalf("projectDataDir() error = %v", err)
	}
	if dir != "/tmp/pathdb-root/my-project" {
		t.Fatalf("projectDataDir() = %q, want %q", dir, "/tmp/pathdb-root/my-project")
	}
}

func TestProjectDataDir_MissingProjectID(t *testing.T) {
	t.Setenv("PATHDB_DATA_DIR", "/tmp/pathdb-root")

	if _, err := projectDataDir(&Config{}, ""); err == nil {
		t.Fatal("projectDataDir() with empty ProjectID: want error, got nil")
	}
}
