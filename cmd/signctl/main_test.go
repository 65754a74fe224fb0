package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-signer/internal/auth"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestRun_MintsVerifiableToken(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--secret", "s3cret", "--subject", "ops@example.com"}, &stdout, &stderr, env(nil))
	require.Equal(t, 0, code, stderr.String())

	subject, err := auth.NewGate("s3cret").Authenticate(strings.TrimSpace(stdout.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", subject)
}

func TestRun_SecretFromEnvironment(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--subject", "ops", "--format", "json", "--ttl", "1h"}, &stdout, &stderr,
		env(map[string]string{secretEnv: "from-env"}))
	require.Equal(t, 0, code, stderr.String())

	var out struct {
		Token     string    `json:"token"`
		Subject   string    `json:"subject"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "ops", out.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), out.ExpiresAt, time.Minute)

	_, err := auth.NewGate("from-env").Authenticate(out.Token)
	assert.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		code    int
		wantErr string
	}{
		{name: "missing subject", args: []string{"--secret", "s"}, code: 2, wantErr: "--subject is required"},
		{name: "missing secret", args: []string{"--subject", "ops"}, code: 1, wantErr: "secret"},
		{name: "negative ttl", args: []string{"--secret", "s", "--subject", "ops", "--ttl", "-1h"}, code: 2, wantErr: "--ttl"},
		{name: "bad format", args: []string{"--secret", "s", "--subject", "ops", "--format", "yaml"}, code: 2, wantErr: "unsupported format"},
		{name: "unknown flag", args: []string{"--nope"}, code: 2, wantErr: "Error: unknown flag: --nope"},
		{name: "malformed ttl", args: []string{"--secret", "s", "--subject", "ops", "--ttl", "soon"}, code: 2, wantErr: "invalid argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr, env(nil))

			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr.String(), tt.wantErr)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--help"}, &stdout, &stderr, env(nil)))
	assert.Contains(t, stderr.String(), "Usage: signctl")
}
