// Package cmd holds the creator command line: login flows, profile and
// content calls made through a running relay.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/creator-relay/credentials"
	"github.com/jrsteele09/creator-relay/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// settings is the creator's environment.
type settings struct {
	RelayURL    string   `env:"CREATOR_RELAY_URL" envDefault:"http://localhost:3000"`
	ClientKey   string   `env:"TIKTOK_CLIENT_KEY"`
	RedirectURI string   `env:"REDIRECT_URI"`
	AuthURL     string   `env:"TIKTOK_AUTH_URL"`
	Scopes      []string `env:"TIKTOK_SCOPES" envSeparator:"," envDefault:"user.info.basic,video.list,video.upload,video.publish"`
	TokenFile   string   `env:"CREATOR_TOKEN_FILE" envDefault:".creator-tokens.json"`
	Passphrase  string   `env:"CREATOR_TOKEN_PASSPHRASE"`
	ChunkTries  uint     `env:"CREATOR_CHUNK_ATTEMPTS" envDefault:"1"`
}

var (
	verbose bool
	timeout time.Duration
	client  *session.Client
)

var rootCmd = &cobra.Command{
	Use:           "creator",
	Short:         "Creator client for the TikTok relay",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger()

		var s settings
		if err := env.Parse(&s); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		store, err := credentials.NewFileStore(s.TokenFile, credentials.WithPassphrase(s.Passphrase))
		if err != nil {
			return err
		}
		client = session.New(session.Config{
			RelayURL:    s.RelayURL,
			ClientKey:   s.ClientKey,
			RedirectURI: s.RedirectURI,
			AuthURL:     s.AuthURL,
			Scopes:      s.Scopes,
		}, store, session.WithLogger(log.Logger), session.WithChunkAttempts(s.ChunkTries))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if client != nil {
			client.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the command")
}

// printJSON writes raw JSON to stdout followed by a newline.
func printJSON(cmd *cobra.Command, raw []byte) {
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(raw)))
}
