package websocket

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// shutdownWait bounds the graceful shutdown of the web server.
const shutdownWait = 5 * time.Second

type HttpParams struct {
	Address string
	Prefix  string
	Root    string
}

// Handler serves the static viewer files from p.Root under p.Prefix and the
// websocket endpoint under /ws. Every request is logged.
func Handler(p *HttpParams, hub *Hub) (http.Handler, error) {
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving web root %s", p.Root)
	}
	mux := http.NewServeMux()
	mux.Handle(p.Prefix, http.StripPrefix(p.Prefix, http.FileServer(http.Dir(root))))
	mux.Handle("/ws", hub)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Print(r.RemoteAddr + " " + r.Method + " " + r.URL.String())
		mux.ServeHTTP(w, r)
	}), nil
}

// Serve initializes the webserver and listens for connections until ctx is
// done. The hub is closed on return.
func Serve(ctx context.Context, p *HttpParams, hub *Hub) error {
	defer hub.Close()

	handler, err := Handler(p, hub)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:    p.Address,
		Handler: handler,
	}
	log.Printf("serving %s as %s on %s", p.Root, p.Prefix, p.Address)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return errors.Wrapf(err, "listening on %s", p.Address)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "shutting down web server")
	}
	return nil
}
