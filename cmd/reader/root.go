package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/reshetovitsme/nostr-feed-reader/internal/di"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/discovery"
	feedService "github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/service"
	subService "github.com/reshetovitsme/nostr-feed-reader/internal/modules/subscription/service"
	httpServer "github.com/reshetovitsme/nostr-feed-reader/internal/transport/http"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// newRootCmd creates the root command for the reader CLI.
func newRootCmd() *cobra.Command {
	var injector do.Injector

	rootCmd := &cobra.Command{
		Use:     "reader",
		Short:   "Feed discovery, normalization and relay subscription sync",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			injector, err = di.Setup()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if injector != nil {
				if err := di.Shutdown(injector); err != nil {
					slog.Error("Error during shutdown", "error", err)
				}
			}
		},
	}

	rootCmd.SetVersionTemplate("reader version {{.Version}}\n")

	rootCmd.AddCommand(newDiscoverCmd(&injector))
	rootCmd.AddCommand(newFetchCmd(&injector))
	rootCmd.AddCommand(newSyncCmd(&injector))
	rootCmd.AddCommand(newServeCmd(&injector))

	return rootCmd
}

// newDiscoverCmd resolves a site URL to its feed endpoint.
func newDiscoverCmd(injector *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <url>",
		Short: "Resolve a site URL to a validated feed endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locator := do.MustInvoke[*discovery.Locator](*injector)

			result, err := locator.Discover(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// newFetchCmd discovers, fetches and re-emits a feed as normalized RSS.
func newFetchCmd(injector *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <url>",
		Short: "Discover a feed and print it normalized as RSS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := do.MustInvoke[*feedService.Service](*injector)

			feed, err := service.Preview(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rss, err := service.Render(feed)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rss)
			return nil
		},
	}
}

// newSyncCmd runs one subscription reconciliation pass.
func newSyncCmd(injector *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local subscriptions against the published list once",
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor := do.MustInvoke[*subService.Monitor](*injector)
			monitor.SyncOnce(cmd.Context())
			return nil
		},
	}
}

// newServeCmd runs the preview server and the periodic sync monitor.
func newServeCmd(injector *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the feed preview server and subscription sync monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor := do.MustInvoke[*subService.Monitor](*injector)
			server := do.MustInvoke[*httpServer.Server](*injector)

			monitor.Start()

			go func() {
				if err := server.Start(); err != nil {
					slog.Error("Failed to start HTTP server", "error", err)
					os.Exit(1)
				}
			}()

			slog.Info("Reader started")
			slog.Info("Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			slog.Info("Shutting down")
			return nil
		},
	}
}
