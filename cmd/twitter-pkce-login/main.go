package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/al-bashkir/twitter-pkce-login/internal/config"
	"github.com/al-bashkir/twitter-pkce-login/internal/daemon"
)

// Version information (set via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Global flags
var (
	configFile string
	logLevel   string
	logFormat  string
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitConfig  = 3
)

var rootCmd = &cobra.Command{
	Use:   "twitter-pkce-login",
	Short: "Twitter OAuth2 login service",
	Long: `A small web service implementing the OAuth 2.0 Authorization Code flow
with PKCE against Twitter.

Visitors log in with their Twitter account; the service obtains delegated
API tokens and can look up their identity or follow a configured account
on their behalf.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the login service",
	Long: `Start the HTTP service that handles the OAuth2 login flow.

The service:
  - Serves a status page showing the visitor's login state
  - Initiates the PKCE authorization flow and redirects to Twitter
  - Verifies the provider callback and exchanges the code for tokens
  - Issues delegated API calls (identity lookup, follow) with the tokens`,
	RunE: runServe,
}

// overrideExitCode is set by subcommands (check-config) so main() can call
// os.Exit() after cobra finishes. This avoids calling os.Exit() inside RunE
// which would bypass deferred functions. -1 means "use default".
var overrideExitCode = -1

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Display version, commit hash, and build date.`,
	Run:   runVersion,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate configuration file",
	Long: `Load and validate the configuration file without starting the service.

Checks for:
  - Valid YAML syntax
  - Required fields present
  - Valid URLs
  - Logical consistency

Exit codes:
  0 = Configuration is valid
  3 = Configuration error`,
	RunE: runCheckConfig,
}

func init() {
	// Global flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "/etc/twitter-pkce-login/config.yaml",
		"Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error) - overrides config file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format (json, text) - overrides config file")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}

	// If a subcommand set a specific exit code, use it.
	// This is done outside RunE so deferred functions run properly.
	if overrideExitCode >= 0 {
		os.Exit(overrideExitCode)
	}
}

// runServe starts the service
func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override log settings from flags if provided
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	// Initialize structured logging based on config
	config.SetupLogging(&cfg.Log)

	slog.Info("starting twitter login service",
		"version", version,
		"commit", commit,
		"build_date", buildDate,
		"config", configFile,
	)

	// Create and run daemon
	d, err := daemon.New(cfg)
	if err != nil {
		slog.Error("failed to create daemon", "error", err)
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	return d.Run()
}

// runVersion displays version information
func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("twitter-pkce-login version %s\n", version)
	fmt.Printf("  Commit:     %s\n", commit)
	fmt.Printf("  Build date: %s\n", buildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// runCheckConfig validates the configuration
func runCheckConfig(cmd *cobra.Command, args []string) error {
	fmt.Printf("Checking configuration: %s\n\n", configFile)

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed:\n")
		fmt.Fprintf(os.Stderr, "   %v\n", err)
		overrideExitCode = ExitConfig
		return nil // exit code handled via overrideExitCode
	}

	// Print configuration summary (with secrets redacted)
	fmt.Println("Configuration is valid")
	fmt.Println()
	fmt.Println("Configuration summary:")
	if cfg.Provider.Issuer != "" {
		fmt.Printf("  Provider Issuer:  %s (endpoints via discovery)\n", cfg.Provider.Issuer)
	} else {
		fmt.Printf("  Authorize URL:    %s\n", cfg.Provider.AuthorizeURL)
		fmt.Printf("  Token URL:        %s\n", cfg.Provider.TokenURL)
	}
	fmt.Printf("  Client ID:        %s\n", cfg.Provider.ClientID)
	fmt.Printf("  Redirect URI:     %s\n", cfg.Provider.RedirectURI)
	fmt.Printf("  Scopes:           %v\n", cfg.Provider.Scopes)
	fmt.Printf("  API Base URL:     %s\n", cfg.Twitter.APIBaseURL)
	fmt.Printf("  Follow Target:    %s\n", cfg.Twitter.FollowTargetID)
	fmt.Printf("  HTTP Listen:      %s\n", cfg.Listen.HTTP)
	fmt.Printf("  Session Timeout:  %d seconds\n", cfg.Session.Timeout)
	fmt.Printf("  Log Level:        %s\n", cfg.Log.Level)
	fmt.Printf("  Log Format:       %s\n", cfg.Log.Format)
	fmt.Printf("  TLS Enabled:      %v\n", cfg.TLS.Enabled)
	if cfg.HTTP.ProxyURL != "" {
		fmt.Printf("  Outbound Proxy:   %s\n", cfg.HTTP.ProxyURL)
	}

	if cfg.Provider.ClientSecret != "" {
		fmt.Println("\n  Client Secret:    [SET]")
	} else {
		fmt.Println("\n  Client Secret:    [NOT SET] (public client with PKCE)")
	}

	fmt.Println("\nReady to start service")

	return nil
}
