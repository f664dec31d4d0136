package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/alan-mat/dip/internal/config"
	"github.com/alan-mat/dip/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	conf := config.FromEnv()

	w := worker.New(conf)
	if err := w.Start(); err != nil {
		log.Fatal(err)
	}
}
