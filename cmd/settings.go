package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"halomind/internal/bootstrap"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the stored credential and model choice",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Store the primary provider API key",
	Args:  cobra.ExactArgs(1),
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, args []string) error {
		if err := c.AI.Credentials.SetAndPersist(ctx, strings.TrimSpace(args[0])); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "API key saved")
		return nil
	}),
}

var clearKeyCmd = &cobra.Command{
	Use:   "clear-key",
	Short: "Remove the stored primary provider API key",
	Args:  cobra.NoArgs,
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, _ []string) error {
		if err := c.AI.Credentials.SetAndPersist(ctx, ""); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "API key removed")
		return nil
	}),
}

var setModelCmd = &cobra.Command{
	Use:   "set-model <model-id>",
	Short: "Choose the primary model",
	Args:  cobra.ExactArgs(1),
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, args []string) error {
		model, err := c.AI.Resolver.Set(ctx, args[0])
		if err != nil {
			return err
		}
		if model != args[0] {
			fmt.Fprintf(os.Stdout, "%s is deprecated, using %s\n", args[0], model)
			return nil
		}
		fmt.Fprintf(os.Stdout, "model set to %s\n", model)
		return nil
	}),
}

var showSettingsCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: withCore(func(ctx context.Context, c *bootstrap.Container, _ []string) error {
		fmt.Fprintf(os.Stdout, "model:       %s\n", c.AI.Orchestrator.Model(ctx))
		fmt.Fprintf(os.Stdout, "api key:     %s\n", configured(c.AI.Credentials.HasCredential()))
		fmt.Fprintf(os.Stdout, "fallback:    %s\n", configured(c.AI.Fallback != nil && c.Config.AI.FallbackEnabled))
		fmt.Fprintf(os.Stdout, "storage:     %s\n", c.Config.Storage.Driver)
		return nil
	}),
}

func init() {
	settingsCmd.AddCommand(setKeyCmd, clearKeyCmd, setModelCmd, showSettingsCmd)
	rootCmd.AddCommand(settingsCmd)
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

// withCore runs fn against a container without the HTTP surface
func withCore(fn func(ctx context.Context, c *bootstrap.Container, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c := bootstrap.NewContainer()
		c.MustInitCore()
		defer c.Close()

		return fn(cmd.Context(), c, args)
	}
}
