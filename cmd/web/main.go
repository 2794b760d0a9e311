package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterkuimelis/tcgdeck/internal/app"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default $TCGDECK_CONFIG or ./tcgdeck.yaml)")
	addr := flag.String("addr", "", "listen address (overrides web.addr)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, *configPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	listen := a.Config.Web.Addr
	if *addr != "" {
		listen = *addr
	}

	srv := web.NewServer(a.Builder)
	logging.Info().Str("addr", listen).Msg("tcgdeck web API listening")
	if err := srv.ListenAndServe(ctx, listen, a.Config.Web.ShutdownTimeout); err != nil {
		logging.Error().Err(err).Msg("web server stopped")
		a.Close()
		os.Exit(1)
	}
}
