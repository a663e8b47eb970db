package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLocalCache(t *testing.T) {
	cache, err := NewLocalCache(time.Second * 1)
	assert.NoError(t, err)

	err = cache.Cache.Set("test-key", []byte("test-data"))
	assert.NoError(t, err)

	data, err := cache.Cache.Get("test-key")
	assert.NoError(t, err)
	assert.Equal(t, "test-data", string(data))

	err = cache.Cache.Delete("test-key")
	assert.NoError(t, err)

	_, err = cache.Cache.Get("test-key")
	assert.Error(t, err)
}
