package http

import (
	"context"
	"testing"
	"time"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/config"
	"github.com/esimov/ascii-particles/runner"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T) *runner.Runner {
	w, err := collision.New(collision.NewBox(mgl64.Vec3{}, mgl64.Vec3{64, 64, 0}), 2, 1, 4)
	require.NoError(t, err)
	require.True(t, w.AddParticle(mgl64.Vec3{32, 32, 0}, mgl64.Vec3{1, 0, 0}))
	return runner.New(w, config.Default().Physics, 60)
}

func TestGetParams(t *testing.T) {
	cfg := config.Default().Server
	p := GetParams(cfg)
	assert.Equal(t, "localhost:5000", p.Address)
	assert.Equal(t, "/", p.Prefix)
	assert.Equal(t, ".", p.Root)
}

func TestNewHubRejectsUnknownFormat(t *testing.T) {
	cfg := config.Default().Server
	cfg.Format = "xml"
	_, err := NewHub(cfg, newRunner(t))
	assert.Error(t, err)

	cfg.Format = "msgpack"
	hub, err := NewHub(cfg, newRunner(t))
	require.NoError(t, err)
	assert.Equal(t, 0, hub.Clients())
}

func TestInitServerStopsWithContext(t *testing.T) {
	cfg := config.Default().Server
	cfg.Address = "127.0.0.1:0"
	cfg.Root = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, InitServer(ctx, cfg, newRunner(t)))
}
