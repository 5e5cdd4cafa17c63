package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	palimpsestcmd "github.com/louisbranch/palimpsest/internal/cmd/palimpsest"
	platformcmd "github.com/louisbranch/palimpsest/internal/platform/cmd"
)

func main() {
	cfg, err := palimpsestcmd.ParseConfig()
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	log.SetPrefix("[PALIMPSEST] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = platformcmd.RunWithTelemetry(ctx, "palimpsest", func(ctx context.Context) error {
		return palimpsestcmd.Run(ctx, cfg, os.Args[1:], os.Stdout)
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
}
