// Command eventproxy-replay runs a scenario file, printing one line per
// handled event, then a summary.
//
// Usage:
//
//	eventproxy-replay -scenario testdata/menu.toml [-settle 200ms] [-timeout 30s] [-level debug]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/joeycumines/go-eventproxy/scenario"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var errUsage = errors.New(`usage`)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet(`eventproxy-replay`, flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		path    = flags.String(`scenario`, ``, `path to the scenario TOML file (required)`)
		settle  = flags.Duration(`settle`, -1, `override the settle period of the scenario`)
		timeout = flags.Duration(`timeout`, time.Minute, `maximum duration of the run`)
		level   = flags.String(`level`, logiface.LevelInformational.String(), `log level`)
	)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *path == `` || flags.NArg() != 0 {
		flags.Usage()
		return errUsage
	}
	lvl, ok := parseLevel(*level)
	if !ok {
		_, _ = fmt.Fprintf(stderr, "invalid log level: %q\n", *level)
		return errUsage
	}

	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(stderr)),
		stumpy.L.WithLevel(lvl),
	).Logger()

	s, err := scenario.LoadFile(*path)
	if err != nil {
		return err
	}
	if *settle >= 0 {
		s.Settle.Duration = *settle
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	report, err := s.Run(ctx, scenario.WithLogger(logger))
	if err != nil {
		return err
	}

	printReport(stdout, report)
	return nil
}

func printReport(w io.Writer, report *scenario.Report) {
	for _, r := range report.Records {
		_, _ = fmt.Fprintf(w, "%8s %-12s %-8s %s <- %s", r.Elapsed.Round(time.Millisecond), r.Binding, r.Type, r.Trigger, r.Target)
		if r.Detail != `` {
			_, _ = fmt.Fprintf(w, " %q", r.Detail)
		}
		_, _ = fmt.Fprintln(w)
	}
	for _, u := range report.Undelivered {
		_, _ = fmt.Fprintf(w, "undelivered event %d (%s): %v\n", u.Index, u.Target, u.Err)
	}
	_, _ = fmt.Fprintf(w, "%s: %d dispatched, %d handled, %d undelivered, in %s\n",
		report.Name, report.Dispatched, len(report.Records), len(report.Undelivered), report.Elapsed.Round(time.Millisecond))
}

func parseLevel(s string) (logiface.Level, bool) {
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == s {
			return level, true
		}
	}
	return 0, false
}
