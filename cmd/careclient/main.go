package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-care-client/credentials"
	"github.com/jrsteele09/go-care-client/internal/app"
	"github.com/jrsteele09/go-care-client/internal/config"
	"github.com/jrsteele09/go-care-client/staff"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg := config.New()
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		displayAppname(stderr, cfg.GetAppName())
		printUsage(stderr)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}

	logger := newLogger(cfg, stderr)
	cmd, rest := args[0], args[1:]

	// Session commands only touch the store, so they work offline.
	switch cmd {
	case "status", "set-tokens", "logout":
		store, err := app.NewStore(cfg, logger)
		if err != nil {
			return err
		}
		return sessionCmd(cmd, store, rest, stdout)
	case "timeline", "patch-incident", "patch-mar":
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	switch cmd {
	case "timeline":
		return timelineCmd(ctx, a, rest, stdout)
	case "patch-incident":
		return patchCmd(ctx, cmd, a.Staff.PatchIncident, rest, stdout)
	default:
		return patchCmd(ctx, cmd, a.Staff.PatchMAR, rest, stdout)
	}
}

func sessionCmd(cmd string, store credentials.Store, args []string, out io.Writer) error {
	switch cmd {
	case "status":
		return statusCmd(store, out)
	case "set-tokens":
		return setTokensCmd(store, args, out)
	default:
		store.Clear()
		fmt.Fprintln(out, "Logged out")
		return nil
	}
}

func newLogger(cfg config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func statusCmd(store credentials.Store, out io.Writer) error {
	pair := store.Get()
	if !pair.HasAccess() && !pair.HasRefresh() {
		fmt.Fprintln(out, "Not logged in")
		return nil
	}

	fmt.Fprintf(out, "Access token:  %s\n", present(pair.HasAccess()))
	fmt.Fprintf(out, "Refresh token: %s\n", present(pair.HasRefresh()))
	if claims, err := pair.Claims(); err == nil {
		if claims.Subject != "" {
			fmt.Fprintf(out, "Subject:       %s\n", claims.Subject)
		}
		if !claims.ExpiresAt.IsZero() {
			state := "valid"
			if claims.Expired() {
				state = "expired, will refresh on next call"
			}
			fmt.Fprintf(out, "Expires:       %s (%s)\n", claims.ExpiresAt.Format(time.RFC3339), state)
		}
	}
	return nil
}

func present(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}

func setTokensCmd(store credentials.Store, args []string, out io.Writer) error {
	var access, refresh string
	fs := pflag.NewFlagSet("set-tokens", pflag.ContinueOnError)
	fs.StringVar(&access, "access", "", "access token from the login exchange")
	fs.StringVar(&refresh, "refresh", "", "refresh token; omit to keep the stored one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(access) == "" {
		return fmt.Errorf("set-tokens: --access is required: %w", errUsage)
	}

	store.Set(access, refresh)
	fmt.Fprintln(out, "Tokens stored")
	return nil
}

func timelineCmd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("timeline: expected one resident id: %w", errUsage)
	}

	timeline, err := a.Staff.Timeline(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (#%d)\n", timeline.ResidentName, timeline.ResidentID)
	for _, e := range timeline.Events {
		fmt.Fprintf(out, "  %-20s %-10s #%d\n", e.Timestamp.Format(time.RFC3339), e.Type, e.ID)
	}
	return nil
}

type patchFunc func(ctx context.Context, id string, fields map[string]any, intent staff.EditIntent) (map[string]any, error)

func patchCmd(ctx context.Context, name string, patch patchFunc, args []string, out io.Writer) error {
	var reason, detail string
	var fields []string
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&reason, "reason", "", "edit reason: TYPO, LATE_ENTRY or CLARIFICATION")
	fs.StringVar(&detail, "detail", "", "why the record is being amended")
	fs.StringArrayVar(&fields, "field", nil, "field to change as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%s: expected one record id: %w", name, errUsage)
	}

	reasonType, err := staff.ParseReasonType(reason)
	if err != nil {
		return err
	}
	values, err := parseFields(fields)
	if err != nil {
		return err
	}

	record, err := patch(ctx, fs.Arg(0), values, staff.EditIntent{ReasonType: reasonType, Detail: detail})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

// parseFields turns key=value pairs into a patch body. A value that parses
// as JSON keeps its JSON type, anything else is sent as a string.
func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("field %q is not key=value: %w", p, errUsage)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		fields[key] = v
	}
	return fields, nil
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `Usage: careclient <command> [flags]

Commands:
  status                         show the stored session
  set-tokens --access A [--refresh R]
                                 store tokens from a login exchange
  logout                         forget the stored session
  timeline <resident>            list a resident's timeline
  patch-incident <id> --reason R --detail D --field k=v...
  patch-mar <id> --reason R --detail D --field k=v...

Configuration is read from CARE_* environment variables.
`)
}
