/*
 * Copyright 2026 Coppermesh Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coppermesh/fabricheck/pkg/checkup"
	"github.com/coppermesh/fabricheck/pkg/config"
	"github.com/coppermesh/fabricheck/pkg/design"
	"github.com/coppermesh/fabricheck/pkg/fetch"
	"github.com/coppermesh/fabricheck/pkg/logger"
	"github.com/coppermesh/fabricheck/pkg/parser"
	"github.com/coppermesh/fabricheck/pkg/parser/exos"
	"github.com/coppermesh/fabricheck/pkg/session"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	errChecksDegraded = errors.New("one or more checks did not pass")
	errNoCredentials  = errors.New("device credentials not set")
	errBadOutput      = errors.New("unknown output format")
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fabricheck",
		Short:         "Check live network device state against intended design",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(checkCmd(), versionCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fabricheck version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "fabricheck", version)
		},
	}
}

func checkCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run all configured checks and report the results",
		Long: `Run all configured checks and report the results.

Each device is fetched, parsed, and reconciled against its design file.
The exit code is 0 when every check passes, 1 when any check degrades
(FAIL, MISSING, EXTRA, WARN, ERROR, CANCELLED), and 2 on host errors.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, configPath, output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fabricheck.json", "path to the config file (.json or .toml)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")

	return cmd
}

func runCheck(cmd *cobra.Command, configPath, output string) error {
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("%w: %q", errBadOutput, output)
	}

	var cfg config.Config

	if err := config.LoadFile(configPath, &cfg); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	creds, err := resolveCredentials(cfg.ReadCredentialsRef)
	if err != nil {
		return err
	}

	registry := parser.NewRegistry()
	exos.Register(registry)

	fetcher := fetch.NewFetcher(registry, fetch.Config{
		CommandTimeout: time.Duration(cfg.CommandTimeout),
		RetryAttempts:  *cfg.RetryAttempts,
		RetryBackoff:   time.Duration(cfg.RetryBackoff),
	}, log)

	runner := checkup.NewRunner(
		dialerFor(&cfg, log),
		design.NewFileProvider(cfg.DesignDir),
		fetcher,
		checkup.Options{
			Credentials: creds,
			Concurrency: cfg.Concurrency,
			Logger:      log,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, runErr := runner.Run(ctx, cfg.DeviceList())

	if err := render(cmd.OutOrStdout(), run, output); err != nil {
		return err
	}

	if runErr != nil {
		log.Warn().Err(runErr).Msg("run interrupted")
	}

	if run.Status().Degrades() {
		return errChecksDegraded
	}

	return nil
}

func dialerFor(cfg *config.Config, log logger.Logger) session.Dialer {
	if cfg.Transport == config.TransportSSH {
		return &session.SSHDialer{
			Port:           cfg.Port,
			ConnectTimeout: 30 * time.Second,
			CommandTimeout: time.Duration(cfg.CommandTimeout),
		}
	}

	return &session.JSONRPCDialer{
		Port:           cfg.Port,
		CommandTimeout: time.Duration(cfg.CommandTimeout),
		Logger:         log,
	}
}

// resolveCredentials maps a credentials ref to the <REF>_USERNAME and
// <REF>_PASSWORD environment variables. Only the host touches the
// environment; the pipeline packages receive plain values.
func resolveCredentials(ref string) (session.Credentials, error) {
	username := os.Getenv(ref + "_USERNAME")
	password := os.Getenv(ref + "_PASSWORD")

	if username == "" {
		return session.Credentials{}, fmt.Errorf("%w: set %s_USERNAME and %s_PASSWORD", errNoCredentials, ref, ref)
	}

	return session.Credentials{Username: username, Password: password}, nil
}
