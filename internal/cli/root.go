// Package cli wires the atelier command-line interface.
package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atelier/client/internal/auth"
	"github.com/atelier/client/internal/client"
	"github.com/atelier/client/internal/config"
	"github.com/atelier/client/internal/logger"
	"github.com/atelier/client/internal/metrics"
)

// app holds the shared dependencies the subcommands run against. It is
// populated once, before any subcommand executes.
type app struct {
	cfgPath     string
	verbose     bool
	metricsAddr string

	cfg     *config.Config
	log     *zap.Logger
	api     *client.Client
	session *auth.Session
	metrics *metrics.Collector
}

// init builds config, logger, API client, and session.
func (a *app) init() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if a.verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.log = log

	a.metrics = metrics.NewCollector()
	api, err := client.New(cfg.Target, log, client.WithObserver(a.metrics))
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}
	a.api = api

	a.session = auth.NewSession(api, auth.NewFileTokenStore(cfg.Auth.TokenFile), log)

	if a.metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(a.metricsAddr, a.metrics.Handler()); err != nil {
				log.Warn("metrics endpoint failed", zap.String("addr", a.metricsAddr), zap.Error(err))
			}
		}()
	}
	return nil
}

// requireAuth resumes a persisted session and fails when none is valid.
func (a *app) requireAuth(cmd *cobra.Command) error {
	if err := a.session.Resume(cmd.Context()); err != nil {
		return err
	}
	if !a.session.Authenticated() {
		logger.FromContext(cmd.Context()).Debug("no valid persisted session")
		return fmt.Errorf("not logged in; run 'atelier login' first")
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "atelier",
		Short:         "Command-line client for the tuning atelier",
		Long:          "Browse the tuning atelier's services, portfolio, blog and reviews, and manage repair orders from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			cmd.SetContext(logger.WithContext(cmd.Context(), a.log))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to config file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve request metrics on this address (e.g. :9100)")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newMeCmd(a))
	cmd.AddCommand(newServicesCmd(a))
	cmd.AddCommand(newPortfolioCmd(a))
	cmd.AddCommand(newBlogCmd(a))
	cmd.AddCommand(newReviewsCmd(a))
	cmd.AddCommand(newOrdersCmd(a))

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
