// Command aleph is a read-only command-line client for Aleph nodes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"aleph.im/sdk/client"
	"aleph.im/sdk/internal/logging"
)

const defaultAPIURL = "https://api2.aleph.im"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// usageError marks errors caused by the invocation rather than the node.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue), client.IsKind(err, client.KindConfig):
		return 2
	case client.IsKind(err, client.KindNotFound):
		return 4
	default:
		return 1
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("%s: expected %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// env is shared by every subcommand. It is filled in by the root command's
// PersistentPreRunE, after flags are parsed.
type env struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	log    *zap.Logger
	client *client.Client
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	e := &env{v: viper.New(), out: out, errOut: errOut, log: zap.NewNop()}
	cmd := &cobra.Command{
		Use:           "aleph",
		Short:         "Read-only Aleph network client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	pf := cmd.PersistentFlags()
	pf.String("api-url", defaultAPIURL, "Node base URL")
	pf.Duration("timeout", 30*time.Second, "Per-request timeout; 0 disables it")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.String("log-format", logging.FormatConsole, "Log format (console, json)")
	pf.String("config", "", "Config file (json, yaml or toml); keys mirror flag names")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return e.init(cmd)
	}
	cmd.PersistentPostRun = func(*cobra.Command, []string) { _ = e.log.Sync() }

	for _, sub := range []*cobra.Command{
		newMessageCmd(e),
		newFileCmd(e),
		newAggregateCmd(e),
		newNodesCmd(e),
		newSubscribeCmd(e),
		newHashCmd(e),
	} {
		cmd.AddCommand(sub)
	}
	return cmd
}

func (e *env) init(cmd *cobra.Command) error {
	e.v.SetEnvPrefix("ALEPH")
	e.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.v.AutomaticEnv()
	if err := e.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := e.v.GetString("config"); path != "" {
		e.v.SetConfigFile(path)
		if err := e.v.ReadInConfig(); err != nil {
			return usagef("config: %v", err)
		}
	}

	log, err := logging.New(e.errOut, e.v.GetString("log-level"), e.v.GetString("log-format"))
	if err != nil {
		return usageError{err}
	}
	e.log = log

	c, err := client.New(e.v.GetString("api-url"),
		client.WithTimeout(e.v.GetDuration("timeout")),
		client.WithLogger(log),
		client.WithUserAgent("aleph-cli"),
	)
	if err != nil {
		return err
	}
	e.client = c
	e.log.Debug("client ready", zap.String("api_url", c.BaseURL()))
	return nil
}
