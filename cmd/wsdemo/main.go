// File: cmd/wsdemo/main.go
// Package main
// Demo device application: broadcasts a counter reading to every open
// connection at a fixed interval and drains inbound messages, optionally
// echoing them back and journaling them to sqlite.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momentics/embedded-ws/api"
	"github.com/momentics/embedded-ws/internal/journal"
	"github.com/momentics/embedded-ws/server"
)

func main() {
	cfg := server.DefaultConfig()
	port := flag.Uint("port", uint(cfg.Port), "TCP port to listen on")
	flag.StringVar(&cfg.Host, "host", "", "bind host (empty = all interfaces)")
	flag.StringVar(&cfg.Path, "path", cfg.Path, "upgrade request path")
	flag.IntVar(&cfg.MaxConnections, "max-conns", cfg.MaxConnections, "connection slots")
	flag.DurationVar(&cfg.CloseTimeout, "close-timeout", cfg.CloseTimeout, "close handshake timeout")
	flag.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", cfg.HandshakeTimeout, "upgrade request deadline (0 = none)")
	interval := flag.Duration("interval", 5*time.Second, "sensor broadcast interval")
	echo := flag.Bool("echo", false, "echo inbound messages back to their sender")
	dbPath := flag.String("journal", "", "sqlite file for the inbound message journal (empty = off)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()
	cfg.Port = uint16(*port)

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var jr *journal.Journal
	if *dbPath != "" {
		var err error
		if jr, err = journal.Open(ctx, *dbPath); err != nil {
			logger.Error("journal unavailable", "err", err)
			os.Exit(1)
		}
		defer jr.Close()
	}

	srv, err := server.Init(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("server init failed", "err", err)
		os.Exit(1)
	}
	logger.Info("demo running", "addr", srv.Addr().String(), "interval", *interval, "echo", *echo)

	d := &demo{srv: srv, log: logger, journal: jr, echo: *echo}
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.drain(ctx)
	}()
	d.broadcastLoop(ctx, *interval)

	<-done
	logger.Info("shutting down", "stats", srv.Stats())
	srv.Close()
}

type demo struct {
	srv     *server.Server
	log     *slog.Logger
	journal *journal.Journal
	echo    bool
}

func (d *demo) broadcastLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	var counter int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		msg, err := sensorMessage("counter", counter)
		if err != nil {
			d.log.Error("encode sensor message", "err", err)
			continue
		}
		if err := d.srv.Broadcast(string(msg)); err != nil {
			d.log.Warn("broadcast dropped", "err", err)
		}
		counter++
	}
}

func (d *demo) drain(ctx context.Context) {
	for {
		it, err := d.srv.Receive(ctx)
		if err != nil {
			return
		}
		d.handle(ctx, it)
	}
}

// handle consumes one inbound item; the payload is released or handed on
// to the outbound queue.
func (d *demo) handle(ctx context.Context, it *api.Item) {
	kind := "binary"
	if it.Text {
		kind = describe(it.Bytes())
	}
	d.log.Info("message received", "slot", it.Target, "len", it.Len(), "kind", kind)

	if d.journal != nil {
		if err := d.journal.Record(ctx, it.Target, it.Text, it.Bytes()); err != nil {
			d.log.Warn("journal write failed", "err", err)
		}
	}
	if !d.echo {
		it.Release()
		return
	}
	it.Opcode = opcodeFor(it.Text)
	it.Text = false
	if err := d.srv.Send(it, time.Second); err != nil {
		d.log.Warn("echo dropped", "slot", it.Target, "err", err)
		it.Release()
	}
}
