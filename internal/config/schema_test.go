package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Compiles(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)
	assert.NotNil(t, schema)
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		path      string
		wantError bool
		contains  string
	}{
		{
			name: "minimal yaml",
			data: "host: http://localhost\n",
			path: "c.yaml",
		},
		{
			name: "full yaml",
			data: `
name: website
host: https://www.example.com
users: 10
spawnRate: 0.5
duration: 5m
minWait: 5000
maxWait: 9000
timeout: 10s
headers:
  X-Run: one
auth:
  enabled: false
resetStats: true
`,
			path: "c.yml",
		},
		{
			name: "json",
			data: `{"host":"http://localhost","users":2,"minWait":"1s"}`,
			path: "c.json",
		},
		{
			name:      "missing host",
			data:      "users: 2\n",
			path:      "c.yaml",
			wantError: true,
			contains:  "host",
		},
		{
			name:      "empty document",
			data:      "",
			path:      "c.yaml",
			wantError: true,
			contains:  "host",
		},
		{
			name:      "unknown field",
			data:      "host: http://localhost\nmin_wait: 5000\n",
			path:      "c.yaml",
			wantError: true,
			contains:  "min_wait",
		},
		{
			name:      "users wrong type",
			data:      `{"host":"http://localhost","users":"ten"}`,
			path:      "c.json",
			wantError: true,
			contains:  "/users",
		},
		{
			name:      "users zero",
			data:      "host: http://localhost\nusers: 0\n",
			path:      "c.yaml",
			wantError: true,
			contains:  "/users",
		},
		{
			name:      "fractional users",
			data:      "host: http://localhost\nusers: 1.5\n",
			path:      "c.yaml",
			wantError: true,
			contains:  "/users",
		},
		{
			name:      "spawn rate zero",
			data:      "host: http://localhost\nspawnRate: 0\n",
			path:      "c.yaml",
			wantError: true,
			contains:  "/spawnRate",
		},
		{
			name:      "resetStats wrong type",
			data:      "host: http://localhost\nresetStats: \"yes\"\n",
			path:      "c.yaml",
			wantError: true,
			contains:  "resetStats",
		},
		{
			name:      "auth unknown field",
			data:      "host: http://localhost\nauth:\n  token: abc\n",
			path:      "c.yaml",
			wantError: true,
			contains:  "token",
		},
		{
			name:      "header value not string",
			data:      `{"host":"http://localhost","headers":{"X-Num":1}}`,
			path:      "c.json",
			wantError: true,
			contains:  "/headers/X-Num",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema([]byte(tt.data), tt.path)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected *SchemaError, got %T", err)
			assert.NotEmpty(t, schemaErr.Violations)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestValidateSchema_MalformedInput(t *testing.T) {
	err := ValidateSchema([]byte("host: ["), "c.yaml")
	require.Error(t, err)

	var schemaErr *SchemaError
	assert.False(t, errors.As(err, &schemaErr))

	err = ValidateSchema([]byte(`{"host":`), "c.json")
	assert.Error(t, err)
}

func TestSchemaError_Error(t *testing.T) {
	one := &SchemaError{Violations: []string{"/users: expected integer"}}
	assert.Equal(t, "config schema violation: /users: expected integer", one.Error())

	many := &SchemaError{Violations: []string{"a", "b"}}
	assert.Contains(t, many.Error(), "2 config schema violations")
	assert.Contains(t, many.Error(), "1. a")
	assert.Contains(t, many.Error(), "2. b")
}
