package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"WorumTop/internal/app"
	"WorumTop/internal/config"
	"WorumTop/internal/domain"
	"WorumTop/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:          "worumtop",
		Short:        "Forum thread digest bot for Telegram",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(serveCmd(), showCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the daily broadcast",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := app.New(cfg, logger).Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}

func showCmd() *cobra.Command {
	var (
		window  string
		count   int
		random  bool
		dialect string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a rendered message to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if dialect != "" {
				cfg.Telegram.Dialect = dialect
			}
			logger := logging.NewWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

			req := domain.Random()
			if !random {
				w, ok := domain.ParseWindow(window)
				if !ok {
					return fmt.Errorf("unknown window %q (day, week, month, all)", window)
				}
				req = domain.Ranked(w, count)
			}

			msg, err := app.New(cfg, logger).Show(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Body)
			if msg.ImageURL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg.ImageURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&window, "window", "w", "day", "Ranking window: day, week, month or all")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of threads, 1 to 5")
	cmd.Flags().BoolVar(&random, "random", false, "Random thread from a random rubric")
	cmd.Flags().StringVar(&dialect, "dialect", "", "Markup dialect: html or markdown")
	return cmd
}
