package main

import (
	"context"
	"log/slog"
	"os"

	"flytaxi/config"
	dispatchservice "flytaxi/internal/dispatch-service"
	"flytaxi/internal/mylogger"
)

func main() {
	if len(os.Args) < 2 {
		os.Exit(1)
	}

	cfg := config.New(*slog.Default())
	mylog := mylogger.New(cfg.Srv.LogLevel)

	switch os.Args[1] {
	case "dispatch-service":
		if err := dispatchservice.Execute(context.Background(), mylog, cfg); err != nil {
			mylog.Error("dispatch service stopped", err)
			os.Exit(1)
		}
	default:
		mylog.Warn("unknown service", "name", os.Args[1])
		os.Exit(1)
	}
}
