// Package main provides the zchat CLI entry point: a terminal client
// for the Z-GPT assistant backend with streaming chat, session
// management, image generation, and translation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zchat/internal/api"
	"zchat/internal/auth"
	"zchat/internal/client"
	"zchat/internal/config"
	"zchat/internal/logger"
	"zchat/internal/version"
)

var (
	logLevel string
	logFile  string
	baseURL  string
)

// rootCmd represents the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "zchat",
	Short: "zchat - terminal client for the Z-GPT assistant",
	Long: `zchat talks to a Z-GPT backend: authenticated chat with streamed
replies, stored conversation sessions, image generation, and translation.`,
	Run: runChat, // Default behavior is to start a chat.
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.Get().String())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: warn]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend base URL (overrides config)")

	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-file flag: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	if err := logger.Configure(logLevel, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired client stack behind every command.
type app struct {
	cfg     *config.Config
	store   *auth.TokenStore
	gateway *auth.Gateway
	api     *api.API
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	store := auth.NewTokenStore(cfg.TokenPath)
	gateway := auth.NewGateway(store, cfg.BaseURL)
	c := client.New(cfg.BaseURL, store, gateway)
	c.SetTimeout(cfg.Timeout)

	return &app{
		cfg:     cfg,
		store:   store,
		gateway: gateway,
		api:     api.New(c),
	}, nil
}

// mustApp exits on bootstrap failure; commands call it first.
func mustApp() *app {
	a, err := newApp()
	if err != nil {
		logger.Fatal("startup failed", "error", err)
	}
	return a
}
