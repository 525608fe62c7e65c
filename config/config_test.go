package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsNotFoundError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("recognizer:\n  voxelSize: 0.01\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error when modelLibraryDir is missing")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{
		ModelLibraryDir: "models",
		Recognizer:      RecognizerDefaults{VoxelSize: 0.02, PairWidth: 0.2},
		MQTT:            MQTTConfig{Broker: "tcp://localhost:1883", PublishPrefix: "objrecransac"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ModelLibraryDir != cfg.ModelLibraryDir || got.Recognizer.VoxelSize != cfg.Recognizer.VoxelSize {
		t.Errorf("round trip mismatch: got %+v want %+v", got, cfg)
	}
}
