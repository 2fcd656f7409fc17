package service

import (
	"testing"

	"consultly/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAccessService(t *testing.T) {
	logger := zerolog.Nop()
	cfg := &config.Config{
		Admins:    []int64{100, 200},
		Blacklist: []int64{300},
	}
	svc := NewAccessService(cfg, &logger)

	assert.True(t, svc.IsAdmin(100))
	assert.True(t, svc.IsAdmin(200))
	assert.False(t, svc.IsAdmin(300))

	assert.True(t, svc.IsBlacklisted(300))
	assert.False(t, svc.IsBlacklisted(100))
}
