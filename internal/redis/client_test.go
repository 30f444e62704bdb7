package redisclient

import (
	"context"
	"crypto/tls"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := Connect(context.Background(), Options{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer rdb.Close()

	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConnectFailures(t *testing.T) {
	_, err := Connect(context.Background(), Options{}, nil)
	assert.Error(t, err)

	_, err = Connect(context.Background(), Options{Addr: "127.0.0.1:1"}, nil)
	assert.ErrorContains(t, err, "ping redis")
}

func TestClientOptionsTLS(t *testing.T) {
	plain := clientOptions(Options{Addr: "cache.example.com:6380", DB: 2})
	assert.Nil(t, plain.TLSConfig)
	assert.Equal(t, 2, plain.DB)

	secure := clientOptions(Options{Addr: "cache.example.com:6380", TLS: true})
	require.NotNil(t, secure.TLSConfig)
	assert.Equal(t, "cache.example.com", secure.TLSConfig.ServerName)
	assert.Equal(t, uint16(tls.VersionTLS12), secure.TLSConfig.MinVersion)
}
