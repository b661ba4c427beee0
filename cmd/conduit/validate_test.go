package main

import (
	"strings"
	"testing"

	"mercator-hq/conduit/pkg/cli"
)

func TestValidateCommand(t *testing.T) {
	t.Setenv("CONDUIT_TEST_MISSING_KEY", "")
	path := writeConfig(t, `
backends:
  claude:
    type: anthropic
    endpoint: https://anthropic.example.test
    api_key: sk-ant-secret-value-123456
    model: claude-test
  local:
    type: generic
    endpoint: http://127.0.0.1:11434
    api_key_env: CONDUIT_TEST_MISSING_KEY
`)

	out, err := execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}

	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("missing success line:\n%s", out)
	}
	if strings.Contains(out, "sk-ant-secret-value-123456") {
		t.Fatalf("credential leaked into output:\n%s", out)
	}

	var claude, local string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "claude "):
			claude = line
		case strings.HasPrefix(line, "local "):
			local = line
		}
	}
	if !strings.Contains(claude, "anthropic") || !strings.Contains(claude, "claude-test") || !strings.HasSuffix(strings.TrimSpace(claude), "set") {
		t.Errorf("claude row = %q", claude)
	}
	if !strings.Contains(local, "openai") || !strings.Contains(local, "missing (CONDUIT_TEST_MISSING_KEY)") {
		t.Errorf("local row = %q", local)
	}
}

func TestValidateCommandDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	out, err := execute(t, "validate", "--config=")
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "built-in defaults") {
		t.Errorf("output should name the defaults:\n%s", out)
	}
	for _, name := range []string{"claude", "gemini", "openai"} {
		if !strings.Contains(out, "\n"+name+" ") {
			t.Errorf("default backend %q not listed:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "bracketed-json-stream") {
		t.Errorf("gemini stream format not shown:\n%s", out)
	}
}

func TestValidateCommandInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unknown type",
			content: "backends:\n  claude:\n    type: cohere\n",
			want:    "unsupported type",
		},
		{
			name:    "unknown key",
			content: "proxy:\n  listen_adress: 127.0.0.1:9090\n",
			want:    "listen_adress",
		},
		{
			name:    "bad log level",
			content: "telemetry:\n  logging:\n    level: loud\n",
			want:    "telemetry.logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "validate", "--config", writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
			if code := cli.ExitCode(err); code != cli.ExitConfigError {
				t.Errorf("exit code = %d, want %d", code, cli.ExitConfigError)
			}
		})
	}
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, err := execute(t, "validate", "--config", "/nonexistent/conduit.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, cli.ExitConfigError)
	}
}
