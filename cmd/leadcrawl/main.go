// cmd/leadcrawl/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/internal/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// First interrupt: finish the current business and keep the results.
	// Second: cancel. Any further one gets the default handler.
	go func() {
		for range sigs {
			if cli.Interrupt() {
				log.Warn().Msg("Interrupt received, finishing the current business. Press Ctrl+C again to abort")
				continue
			}
			log.Warn().Msg("Interrupt received, aborting")
			signal.Stop(sigs)
			cancel()
			return
		}
	}()

	cli.Execute(ctx)
}
