package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"http-sniffer/infrastructure/config"
)

func TestClientConfigFrom(t *testing.T) {
	cfg := ClientConfigFrom(config.Transport{ConnectTimeout: 3 * time.Second, MaxConnsPerHost: 40})

	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 40, cfg.MaxConnsPerHost)
	assert.Equal(t, 60*time.Second, cfg.ResponseHeaderTimeout)
}

func TestNewTransport(t *testing.T) {
	tr := NewTransport(ClientConfig{MaxConnsPerHost: 40, InsecureSkipVerify: true})

	assert.Equal(t, 10, tr.MaxIdleConnsPerHost)
	assert.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)

	tr = NewTransport(DefaultClientConfig())
	assert.Equal(t, 5, tr.MaxIdleConnsPerHost)
	assert.Nil(t, tr.TLSClientConfig)
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(ClientConfig{TotalTimeout: time.Second}, nil)
	assert.Equal(t, time.Second, c.Timeout)
	assert.NotNil(t, c.Transport)
}
