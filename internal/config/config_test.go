package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}
	if cfg.AMQPQueue != "ledger_events" {
		t.Errorf("AMQPQueue = %q", cfg.AMQPQueue)
	}
	if cfg.MirrorBatchSize != 10 {
		t.Errorf("MirrorBatchSize = %d", cfg.MirrorBatchSize)
	}
	if cfg.MirrorInterval != 30*time.Second {
		t.Errorf("MirrorInterval = %v", cfg.MirrorInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", t.TempDir()+"/despesas.db")
	t.Setenv("MIRROR_BATCH_SIZE", "25")
	t.Setenv("MIRROR_INTERVAL", "2m")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}
	if cfg.MirrorBatchSize != 25 {
		t.Errorf("MirrorBatchSize = %d", cfg.MirrorBatchSize)
	}
	if cfg.MirrorInterval != 2*time.Minute {
		t.Errorf("MirrorInterval = %v", cfg.MirrorInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Load()
	cfg.Port = "not-a-port"
	cfg.DataBackend = "postgres"
	cfg.AMQPURL = "http://wrong-scheme"
	cfg.MirrorBatchSize = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"invalid port", "invalid data backend", "invalid AMQP URL scheme", "invalid mirror batch size"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q:\n%s", want, msg)
		}
	}
}

func TestValidateAMQPNames(t *testing.T) {
	cfg := Load()
	cfg.AMQPExchange = ""
	cfg.AMQPQueue = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "exchange name") {
		t.Errorf("Validate = %v, want exchange name error", err)
	}
}
