package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{}
	applyDefaults(&cfg, qualitySet{})
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults = %v, want nil", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too high", 70000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want port error")
			}
			if !strings.Contains(err.Error(), "port") {
				t.Errorf("error = %v, want port error", err)
			}
		})
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.VectorStore.Provider = "pinecone"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want provider error")
	}
}

func TestValidate_ChunkOverlap(t *testing.T) {
	cfg := validConfig()
	cfg.RAG.ChunkSize = 100
	cfg.RAG.ChunkOverlap = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want chunk overlap error")
	}
}

func TestQualityValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*QualityConfig)
		wantErr bool
	}{
		{"defaults", func(q *QualityConfig) {}, false},
		{"threshold above one", func(q *QualityConfig) { q.Thresholds["relevance"] = 1.5 }, true},
		{"threshold negative", func(q *QualityConfig) { q.Thresholds["relevance"] = -0.1 }, true},
		{"weight negative", func(q *QualityConfig) { q.Weights["relevance"] = -0.2 }, true},
		{"overall above one", func(q *QualityConfig) { q.OverallThreshold = 1.01 }, true},
		{"negative iterations", func(q *QualityConfig) { q.MaxIterations = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QualityConfig{}
			applyQualityDefaults(&q, qualitySet{})
			tt.mutate(&q)
			err := q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("sk-very-secret")

	if s.String() != "[REDACTED]" {
		t.Errorf("String() = %q, want [REDACTED]", s.String())
	}
	if s.Value() != "sk-very-secret" {
		t.Errorf("Value() = %q, want raw secret", s.Value())
	}
	if !s.IsSet() {
		t.Error("IsSet() = false, want true")
	}

	data, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `"[REDACTED]"` {
		t.Errorf("MarshalJSON() = %s, want redacted", data)
	}

	var empty Secret
	if empty.String() != "" {
		t.Errorf("empty String() = %q, want empty", empty.String())
	}
	if empty.IsSet() {
		t.Error("empty IsSet() = true, want false")
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("45s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Duration() != 45*time.Second {
		t.Errorf("Duration() = %v, want 45s", d.Duration())
	}

	if err := d.UnmarshalText([]byte("-2s")); err == nil {
		t.Fatal("UnmarshalText(-2s) = nil, want error")
	}
	if err := d.UnmarshalText([]byte("nonsense")); err == nil {
		t.Fatal("UnmarshalText(nonsense) = nil, want error")
	}
}
