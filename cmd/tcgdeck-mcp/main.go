package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/tcgdeck/internal/app"
	"github.com/peterkuimelis/tcgdeck/internal/log"
	tcgdeckmcp "github.com/peterkuimelis/tcgdeck/internal/mcp"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default $TCGDECK_CONFIG or ./tcgdeck.yaml)")
	flag.Parse()

	// Deck events are drained into tool responses; stdout carries the protocol.
	events := log.NewMemoryLogger()
	a, err := app.Open(context.Background(), *configPath, events)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	s := server.NewMCPServer(a.Config.MCP.Name, "1.0.0")
	tcgdeckmcp.RegisterTools(s, tcgdeckmcp.NewSession(a.Builder, events))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
