package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alan-mat/dip/server"
	"github.com/alan-mat/dip/worker"
	"github.com/alexflint/go-arg"
)

const (
	ProgramName   = "DIP"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/alan-mat/dip"
)

type serveCmd struct {
	Config string `arg:"--config,-c" help:"path to a yaml config file"`
}

type workCmd struct {
	Config string `arg:"--config,-c" help:"path to a yaml config file"`
}

type args struct {
	Serve *serveCmd `arg:"subcommand:serve" help:"start the dip API server"`
	Work  *workCmd  `arg:"subcommand:work" help:"start the dip worker"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: strings.ToLower(ProgramName)}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	var cmd func(any) error

	switch p.Subcommand().(type) {
	case *serveCmd:
		cmd = startServer
	case *workCmd:
		cmd = startWorker
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err := cmd(p.Subcommand()); err != nil {
		log.Fatal(err)
	}
}

func startServer(a any) error {
	sc, ok := a.(*serveCmd)
	if !ok {
		return fmt.Errorf("unexpected command arguments")
	}

	conf, err := resolveConfig(sc.Config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(conf)
	return srv.Serve(ctx)
}

func startWorker(a any) error {
	wc, ok := a.(*workCmd)
	if !ok {
		return fmt.Errorf("unexpected command arguments")
	}

	conf, err := resolveConfig(wc.Config)
	if err != nil {
		return err
	}

	w := worker.New(conf)
	return w.Start()
}
