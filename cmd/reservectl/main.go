// Command reservectl submits reservations and drives the admin console from a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/noah-isme/reservation-api/internal/client"
	"github.com/noah-isme/reservation-api/internal/reservation"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

const envPrefix = "RESERVECTL"

// command is one reservectl subcommand.
type command struct {
	name    string
	usage   string
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, env *environment, fs *pflag.FlagSet) error
}

// environment carries what every command needs.
type environment struct {
	cfg    *viper.Viper
	api    *client.Client
	tokens *tokenStore
	out    io.Writer
	errOut io.Writer
}

func commands() []*command {
	return []*command{
		submitCommand(),
		loginCommand(),
		logoutCommand(),
		listCommand(),
		showCommand(),
		statusCommand(),
		memoCommand(),
		exportCommand(),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(errOut)
		return 2
	}

	var cmd *command
	for _, candidate := range commands() {
		if candidate.name == args[0] {
			cmd = candidate
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(errOut, "unknown command %q\n\n", args[0])
		printUsage(errOut)
		return 2
	}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.String("server", "http://localhost:8080", "reservation API base URL")
	fs.String("api-prefix", "/api/v1", "prefix of the admin routes")
	fs.String("token-file", "", "where the admin token is kept (default: user config dir)")
	fs.Duration("timeout", 30*time.Second, "request timeout")
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: reservectl %s\n\n%s\n\nFlags:\n", cmd.usage, cmd.summary)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	env, err := newEnvironment(fs, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, env.cfg.GetDuration("timeout"))
	defer cancel()

	if err := cmd.run(ctx, env, fs); err != nil {
		fmt.Fprintln(errOut, describeError(err))
		return 1
	}
	return 0
}

func newEnvironment(fs *pflag.FlagSet, out, errOut io.Writer) (*environment, error) {
	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()
	if err := cfg.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	tokens, err := newTokenStore(cfg.GetString("token-file"))
	if err != nil {
		return nil, err
	}
	token, err := tokens.Load()
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.GetString("server"),
		client.WithAPIPrefix(cfg.GetString("api-prefix")),
		client.WithToken(token),
		client.WithTimeout(cfg.GetDuration("timeout")),
	)
	return &environment{cfg: cfg, api: api, tokens: tokens, out: out, errOut: errOut}, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: reservectl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	cmds := commands()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].name < cmds[j].name })
	for _, cmd := range cmds {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(w, "\nEvery flag may also be set as %s_<FLAG>, e.g. %s_SERVER.\n", envPrefix, envPrefix)
}

// describeError renders err for the operator.
func describeError(err error) string {
	var verr *reservation.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, client.ErrSubmitFailed):
		return client.MsgSubmitFailed
	case appErrors.HasCode(err, appErrors.ErrUnauthorized), appErrors.HasCode(err, appErrors.ErrInvalidCredentials):
		return "error: " + appErrors.FromError(err).Message + " (run `reservectl login`)"
	default:
		return "error: " + err.Error()
	}
}
