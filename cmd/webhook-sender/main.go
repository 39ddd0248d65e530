// Command webhook-sender posts sample catalog change notifications to a
// running listener and reads back what was stored.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PratikDhanave/metadata-change-listener/internal/sender"
)

var (
	baseURL string
	secret  string
	timeout time.Duration
	limit   int
)

var rootCmd = &cobra.Command{
	Use:           "webhook-sender",
	Short:         "Send sample change notifications to the metadata change listener",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the listener and its database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		hs, err := client().Health(cmd.Context())
		if hs.Status != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\ndatabase: %s\n", hs.Status, hs.Database)
		}
		return err
	},
}

var sendCmd = &cobra.Command{
	Use:       "send [entityCreated|entityUpdated|entityDeleted|all]",
	Short:     "Post one canned event, or all of them in order",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: append([]string{"all"}, sender.EventKinds...),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := "entityUpdated"
		if len(args) == 1 {
			kind = args[0]
		}
		if kind == "all" {
			n, err := sender.SendAll(cmd.Context(), client(), cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d/%d\n", n, len(sender.EventKinds))
			return err
		}
		return sender.SendOne(cmd.Context(), client(), kind, cmd.OutOrStdout())
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recently stored events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sender.PrintEvents(cmd.Context(), client(), limit, cmd.OutOrStdout())
	},
}

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Health check, send every canned event, list results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sender.Smoke(cmd.Context(), client(), cmd.OutOrStdout())
	},
}

func init() {
	// Flags fall back to environment variables.
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", getEnv("WEBHOOK_URL", "http://localhost:5000"), "listener base URL")
	rootCmd.PersistentFlags().StringVar(&secret, "secret", os.Getenv("WEBHOOK_SECRET"), "bearer secret for /webhook")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	eventsCmd.Flags().IntVar(&limit, "limit", 5, "number of events to list")

	rootCmd.AddCommand(healthCmd, sendCmd, eventsCmd, smokeCmd)
}

func client() *sender.Client {
	return sender.New(baseURL, secret, timeout)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
