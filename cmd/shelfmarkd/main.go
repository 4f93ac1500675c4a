// Command shelfmarkd runs the shelfmark daemon in the foreground without the
// CLI wrapper, for use under process supervisors like systemd.
package main

import (
	"context"
	"log"

	"shelfmark/internal/config"
	"shelfmark/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel: cfg.Logging.Level,
	}); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
