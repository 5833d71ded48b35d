package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		listen string
		exp    string
	}{
		{name: "ok/port_only", listen: ":8080", exp: "localhost:8080"},
		{name: "ok/unspecified_ipv4", listen: "0.0.0.0:8080", exp: "localhost:8080"},
		{name: "ok/unspecified_ipv6", listen: "[::]:8080", exp: "localhost:8080"},
		{name: "ok/host", listen: "127.0.0.1:9000", exp: "127.0.0.1:9000"},
		{name: "ok/no_port", listen: "example.com", exp: "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, dialAddress(tt.listen))
		})
	}
}

func TestParseExpiration(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		exp    time.Time
		expErr string
	}{
		{name: "ok/duration", value: "1d", exp: now.Add(24 * time.Hour)},
		{name: "ok/year", value: "1y", exp: now.Add(365 * 24 * time.Hour)},
		{
			name:  "ok/timestamp",
			value: "2025-02-01T00:00:00Z",
			exp:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "err/past_duration", value: "-1h", expErr: "expiration time is in the past"},
		{name: "err/past_timestamp", value: "2024-01-01T00:00:00Z", expErr: "expiration time is in the past"},
		{name: "err/invalid", value: "soon", expErr: "invalid duration 'soon'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseExpiration(tt.value, now)
			if tt.expErr != "" {
				assert.ErrorContains(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.exp.Equal(got), "expected %s, got %s", tt.exp, got)
		})
	}
}

func TestServeValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&Serve{}).Validate())
	assert.NoError(t, (&Serve{ErrorLevel: "full"}).Validate())
	assert.EqualError(t, (&Serve{ErrorLevel: "some"}).Validate(),
		"invalid error level 'some'; valid values: [none minimal full]")
}
