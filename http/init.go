// Package http streams a running collision box to browser viewers.
package http

import (
	"context"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/config"
	"github.com/esimov/ascii-particles/frame"
	"github.com/esimov/ascii-particles/runner"
	"github.com/esimov/ascii-particles/websocket"
)

// GetParams returns the web server parameters of cfg.
func GetParams(cfg config.ServerConfig) websocket.HttpParams {
	return websocket.HttpParams{
		Address: cfg.Address,
		Prefix:  cfg.Prefix,
		Root:    cfg.Root,
	}
}

// NewHub creates the websocket hub of cfg forwarding client targets to r.
func NewHub(cfg config.ServerConfig, r *runner.Runner) (*websocket.Hub, error) {
	format, err := frame.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return websocket.NewHub(format, func(p collision.Point) { r.SetTarget(p) }), nil
}

// InitServer runs the simulation and the web server until ctx is done or
// either of them fails.
func InitServer(ctx context.Context, cfg config.ServerConfig, r *runner.Runner) error {
	hub, err := NewHub(cfg, r)
	if err != nil {
		return err
	}
	params := GetParams(cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	go func() {
		errc <- r.Run(ctx, hub.Broadcast)
		cancel()
	}()
	go func() {
		errc <- websocket.Serve(ctx, &params, hub)
		cancel()
	}()

	var first error
	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil && first == nil {
			first = err
		}
	}
	return first
}
