package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/rigour/rigour_sdk_go/internal/config"
	"github.com/rigour/rigour_sdk_go/internal/devseed"
	"github.com/rigour/rigour_sdk_go/internal/logging"
	"github.com/rigour/rigour_sdk_go/internal/sandbox"
	credmock "github.com/rigour/rigour_sdk_go/pkg/credentials/mock"
	hostsmock "github.com/rigour/rigour_sdk_go/pkg/hosts/mock"
	scansmock "github.com/rigour/rigour_sdk_go/pkg/scans/mock"
)

func main() {
	addr := pflag.String("addr", ":8787", "listen address")
	seedPath := pflag.String("seed", "", "path to a JSON seed with hosts, scans and credentials")
	latency := pflag.Duration("latency", 0, "artificial latency to inject per request")
	fail := pflag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	level := pflag.String("log-level", "info", "log level")
	pretty := pflag.Bool("pretty", true, "human readable logs")
	pflag.Parse()

	log, err := logging.New(logging.Options{Level: *level, Pretty: *pretty})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	hm := hostsmock.New()
	cm := credmock.New()
	sm := scansmock.New(cm)
	if *seedPath != "" {
		seed, err := devseed.Load(*seedPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load seed")
		}
		if err := hm.Seed(seed.Hosts); err != nil {
			log.Fatal().Err(err).Msg("apply hosts seed")
		}
		if err := cm.Seed(seed.Credentials); err != nil {
			log.Fatal().Err(err).Msg("apply credentials seed")
		}
		if err := sm.Seed(seed.Scans); err != nil {
			log.Fatal().Err(err).Msg("apply scans seed")
		}
		log.Info().
			Int("hosts", len(seed.Hosts)).
			Int("scans", len(seed.Scans)).
			Int("credentials", len(seed.Credentials)).
			Str("path", *seedPath).
			Msg("seed applied")
	}

	failCfg, err := sandbox.ParseFailConfig(*fail)
	if err != nil {
		log.Fatal().Err(err).Msg("parse fail flag")
	}

	srv := sandbox.New(sandbox.Options{
		Hosts:   hm,
		Scans:   sm,
		Logger:  log,
		Latency: *latency,
		Fail:    failCfg,
	})
	server := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", *addr).Msg("rigour-sandbox listening")
	printExports(*addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go shutdownOnDone(ctx, server, log)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func printExports(addr string) {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Println()
	fmt.Printf("export %s=http\n", config.EnvMode)
	fmt.Printf("export %s=http://%s\n", config.EnvAPIURL, host)
	fmt.Println()
}

func shutdownOnDone(ctx context.Context, server *http.Server, log zerolog.Logger) {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
