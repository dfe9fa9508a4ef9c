package server_test

import (
	"testing"

	"ledger-recon/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  server.Config
		addr string
		auth bool
	}{
		{"Defaults", server.Config{}, ":8080", false},
		{"Custom Port", server.Config{Port: "9090"}, ":9090", false},
		{"With Key", server.Config{Port: "8080", ApiKey: "secret"}, ":8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.addr, tt.cfg.Addr())
			assert.Equal(t, tt.auth, tt.cfg.AuthEnabled())
		})
	}
}
