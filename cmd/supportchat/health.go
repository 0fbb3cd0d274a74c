package main

import (
	"fmt"
	"io"
	"strings"

	"SupportChat/internal/backend"
	"SupportChat/internal/config"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

func newHealthCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the support backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			health, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			printHealth(cmd.OutOrStdout(), cfg.BaseURL, health)
			return nil
		},
	}
}

func printHealth(w io.Writer, baseURL string, h backend.HealthResponse) {
	status := color.Green.Render(h.Status)
	if h.Status != "healthy" {
		status = color.Yellow.Render(h.Status)
	}
	fmt.Fprintf(w, "Backend:  %s\n", baseURL)
	fmt.Fprintf(w, "Status:   %s\n", status)
	fmt.Fprintf(w, "Sessions: %d\n", h.Sessions)
	if ids := h.ActiveUserIDs(); len(ids) > 0 {
		fmt.Fprintf(w, "Users:    %s\n", strings.Join(ids, ", "))
	}
}
