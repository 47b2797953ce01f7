// Command servente runs the HTTP/1.1 and HTTP/2 origin server.
//
// TLS termination, certificate provisioning, and request routing are
// all out of this module's scope (spec Non-goals); this entrypoint
// wires the protocol engines directly to a plaintext listener and the
// built-in welcome-page handler, matching the teacher's own
// ConfigureServer/handleConn split between setup and per-connection
// work. --tls-cert/--tls-key are accepted and threaded through so an
// external TLS-terminating front door has something to read, but
// this binary never performs the handshake itself.
package main

import (
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/usadson/servente/internal/handler"
	"github.com/usadson/servente/internal/servconf"
	"github.com/usadson/servente/internal/upgrade"
)

func main() {
	cmd := servconf.NewRootCommand(run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *servconf.Config, log *zap.Logger) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	log.Info("listening", zap.String("addr", addr), zap.Bool("http2", cfg.EnableHTTP2))

	root := handler.Handler(handler.Welcome)

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// A transient accept failure (e.g. file-descriptor
			// exhaustion, EMFILE/ENFILE) should not take the whole
			// listener down; log and keep serving other connections.
			log.Warn("accept failed", zap.Error(err))
			continue
		}
		connLog := servconf.ConnLogger(log)
		go upgrade.ServeWithOptions(nc, root, connLog, cfg.HeaderTimeout, cfg.BodyTimeout, cfg.EnableHTTP2)
	}
}
