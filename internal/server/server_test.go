package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/deppfellow/store-metrics/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:         "8080",
			ReadTimeout:  30,
			WriteTimeout: 15,
			IdleTimeout:  60,
		},
	}
}

func TestNewRedisClient_DisabledWithoutAddress(t *testing.T) {
	logger := zerolog.Nop()
	assert.Nil(t, newRedisClient(testConfig(), &logger, nil))
}

func TestSetupHTTPServer(t *testing.T) {
	logger := zerolog.Nop()
	s := &Server{Config: testConfig(), Logger: &logger}

	s.SetupHTTPServer(http.NotFoundHandler())

	require.NotNil(t, s.httpServer)
	assert.Equal(t, ":8080", s.httpServer.Addr)
	assert.Equal(t, 30*time.Second, s.httpServer.ReadTimeout)
	assert.Equal(t, 15*time.Second, s.httpServer.WriteTimeout)
	assert.Equal(t, 60*time.Second, s.httpServer.IdleTimeout)
}

func TestStart_RequiresSetup(t *testing.T) {
	logger := zerolog.Nop()
	s := &Server{Config: testConfig(), Logger: &logger}

	assert.EqualError(t, s.Start(), "HTTP server not initialized")
}

func TestShutdown_WithoutDependencies(t *testing.T) {
	logger := zerolog.Nop()
	s := &Server{Config: testConfig(), Logger: &logger}
	s.SetupHTTPServer(http.NotFoundHandler())

	assert.NoError(t, s.Shutdown(context.Background()))
}
