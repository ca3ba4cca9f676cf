package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medagent/internal/app"
	"medagent/pkg/systemd"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}
	systemd.NotifyReady()
	go systemd.WatchdogLoop(ctx)

	<-ctx.Done()
	systemd.NotifyStopping()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	a.Stop(stopCtx)
	stopCancel()
}
