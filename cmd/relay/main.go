package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/creator-relay/internal/config"
	"github.com/jrsteele09/creator-relay/provider"
	"github.com/jrsteele09/creator-relay/server"
	"github.com/jrsteele09/creator-relay/trending"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	if config.GetEnv("ENV", config.DevEnv) == config.DevEnv {
		_ = godotenv.Load()
	}

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	upstream := provider.New(c)
	store, closeStore, err := trendStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	trends := trending.NewService(upstream, store, map[trending.Kind]string{
		trending.KindHashtags: c.GetTrendingHashtagsURL(),
		trending.KindSongs:    c.GetTrendingSongsURL(),
	}, c.GetTrendingCacheTTL())

	handler, err := server.New(c, upstream, trends)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() { serverErr <- listenAndServe(srv) }()

	select {
	case err := <-serverErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// trendStore picks Redis when REDIS_ADDR is set, else process memory.
func trendStore(c config.Config) (trending.Store, func(), error) {
	if c.GetRedisAddr() == "" {
		return trending.NewMemoryStore(), func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := trending.DialRedis(ctx, c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB())
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", c.GetRedisAddr()).Msg("Using Redis trend cache")
	return trending.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == config.DevEnv {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
