package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_Minimal(t *testing.T) {
	cfg, err := Parse([]byte("repo: acme/widgets\nlabel: auto-respond\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Repo != "acme/widgets" {
		t.Errorf("Repo = %q", cfg.Repo)
	}
	if cfg.Owner() != "acme" || cfg.Name() != "widgets" {
		t.Errorf("Owner/Name = %q/%q, want acme/widgets", cfg.Owner(), cfg.Name())
	}
	if cfg.Interval() != 10*time.Second {
		t.Errorf("Interval = %s, want 10s", cfg.Interval())
	}
	if cfg.StatusEvery != 30 {
		t.Errorf("StatusEvery = %d, want 30", cfg.StatusEvery)
	}
	if cfg.DB.Backend != "sqlite" {
		t.Errorf("DB.Backend = %q, want sqlite", cfg.DB.Backend)
	}
	if cfg.DB.Path == "" {
		t.Error("DB.Path should default under data_dir")
	}
	if cfg.Responder.Binary != "claude" {
		t.Errorf("Responder.Binary = %q, want claude", cfg.Responder.Binary)
	}
	if !strings.HasSuffix(cfg.LogsDir(), "logs") {
		t.Errorf("LogsDir = %q", cfg.LogsDir())
	}
}

func TestParse_Overrides(t *testing.T) {
	data := `
repo: acme/widgets
label: auto-respond
poll_interval: 30
status_every: 10
data_dir: /var/lib/flagman
db:
  backend: mysql
  host: db.internal
  port: 3307
  database: flagman_prod
responder:
  binary: /usr/local/bin/claude
  workdir: /srv/widgets
extra_bot_signatures:
  - "-- issuebot"
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Interval() != 30*time.Second {
		t.Errorf("Interval = %s, want 30s", cfg.Interval())
	}
	if cfg.DB.Backend != "mysql" || cfg.DB.Host != "db.internal" || cfg.DB.Port != 3307 {
		t.Errorf("DB = %+v", cfg.DB)
	}
	if cfg.Responder.WorkDir != "/srv/widgets" {
		t.Errorf("Responder.WorkDir = %q", cfg.Responder.WorkDir)
	}
	if len(cfg.ExtraBotSignatures) != 1 || cfg.ExtraBotSignatures[0] != "-- issuebot" {
		t.Errorf("ExtraBotSignatures = %v", cfg.ExtraBotSignatures)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"missing repo", "label: x\n", "repo is required"},
		{"bad repo", "repo: widgets\nlabel: x\n", `repo must be "owner/name"`},
		{"missing label", "repo: a/b\n", "label is required"},
		{"bad backend", "repo: a/b\nlabel: x\ndb:\n  backend: postgres\n", "not supported"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tc.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("repo: [")); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}
