// ABOUTME: Entry point for dashboard-gateway
// ABOUTME: Serves the role-gated dashboard and manages users and role permissions

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/dashboard-gateway/internal/config"
	"github.com/2389/dashboard-gateway/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _           _     _                         _
  __| | __ _ ___| |__ | |__   ___   __ _ _ __ __| |
 / _' |/ _' / __| '_ \| '_ \ / _ \ / _' | '__/ _' |
| (_| | (_| \__ \ | | | |_) | (_) | (_| | | | (_| |
 \__,_|\__,_|___/_| |_|_.__/ \___/ \__,_|_|  \__,_|
`

// getConfigPath returns the path to the gateway config file.
// Priority: DASHBOARD_CONFIG env var > XDG_CONFIG_HOME/dashboard/gateway.yaml > ~/.config/dashboard/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("DASHBOARD_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "dashboard", "gateway.yaml")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dashboard-gateway",
		Short:         "Role-gated dashboard gateway",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $DASHBOARD_CONFIG or ~/.config/dashboard/gateway.yaml)")

	loadConfig := func() (*config.Config, string, error) {
		path := configPath
		if path == "" {
			path = getConfigPath()
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, path, fmt.Errorf("loading config: %w", err)
		}
		return cfg, path, nil
	}

	root.AddCommand(
		newServeCmd(loadConfig),
		newUserCmd(loadConfig),
		newGrantCmd(loadConfig),
		newRevokeCmd(loadConfig),
		newPermissionsCmd(loadConfig),
		newHealthCmd(loadConfig),
	)
	return root
}

type configLoader func() (*config.Config, string, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cyan := color.New(color.FgCyan)
			cyan.Print(banner)
			gray := color.New(color.FgHiBlack)
			gray.Printf("    version: %s\n\n", version)

			cfg, configPath, err := load()
			if err != nil {
				return err
			}

			logger := setupLogger(cfg.Logging)

			green := color.New(color.FgGreen)
			yellow := color.New(color.FgYellow)

			green.Print("    ▶ ")
			fmt.Printf("Config:    %s\n", configPath)
			green.Print("    ▶ ")
			fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
			green.Print("    ▶ ")
			fmt.Printf("Sections:  %d\n", len(cfg.Sections))
			if !cfg.Session.Secure {
				yellow.Println("    ! session cookies are not marked Secure (development only)")
			}
			fmt.Println()

			logger.Info("starting dashboard-gateway",
				"config", configPath,
				"http_addr", cfg.Server.HTTPAddr,
				"environment", cfg.Server.Environment,
			)

			gw, err := gateway.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating gateway: %w", err)
			}

			return gw.Run(cmd.Context())
		},
	}
}
