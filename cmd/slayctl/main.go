// Command slayctl is the terminal client for the vote server.
//
//	slayctl [--server URL] [--session FILE] <command> [args]
//
// Commands:
//
//	login <email>                 sign in and remember the session
//	logout                        forget the session
//	whoami                        print the signed-in user
//	categories                    list categories and candidates
//	vote <category> <candidate>   vote for a predefined candidate
//	vote <category> --write-in NAME
//	results                       print the current results
//	watch                         print results again on every change
//	browse                        step through categories and vote
//
// The server URL comes from --server or SLAY_SERVER and is required.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sakif/slay-vote/internal/client"
	"github.com/sakif/slay-vote/internal/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "slayctl: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	server      string
	sessionPath string
	writeIn     string
	verbose     bool
	command     string
	args        []string
}

var errUsage = errors.New("usage: slayctl [--server URL] <login|logout|whoami|categories|vote|results|watch|browse>")

func parseArgs(args []string, getenv func(string) string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("slayctl", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&opts.server, "server", "s", getenv("SLAY_SERVER"), "vote server URL")
	fs.StringVar(&opts.sessionPath, "session", getenv("SLAY_SESSION"), "session file (default in the user config dir)")
	fs.StringVarP(&opts.writeIn, "write-in", "w", "", "vote for a write-in candidate by name")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	fs.SetInterspersed(true)

	if err := fs.Parse(args); err != nil {
		return options{}, fmt.Errorf("%w\n%v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return options{}, errUsage
	}
	opts.command = fs.Arg(0)
	opts.args = fs.Args()[1:]

	if opts.server == "" {
		return options{}, errors.New("no server configured: pass --server or set SLAY_SERVER")
	}
	if opts.sessionPath == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return options{}, err
		}
		opts.sessionPath = p
	}
	return opts, nil
}

func run(ctx context.Context, args []string, getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, getenv)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	gw, err := client.NewHTTPGateway(opts.server, nil)
	if err != nil {
		return err
	}
	notifier := client.NotifierFunc(func(err error) {
		fmt.Fprintf(stderr, "! %v\n", err)
	})
	app := client.NewApp(gw, client.NewFileSessionStore(opts.sessionPath), notifier, logger)
	renderer := client.NewRenderer(client.DefaultTheme, 0)

	if opts.command == "logout" {
		return app.Logout()
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	switch opts.command {
	case "login":
		if len(opts.args) != 1 {
			return errors.New("usage: slayctl login <email>")
		}
		if err := app.Login(ctx, opts.args[0]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "logged in as %s\n", app.User().Email)
		return nil

	case "whoami":
		if u := app.User(); u.LoggedIn {
			fmt.Fprintln(stdout, u.Email)
		} else {
			fmt.Fprintln(stdout, "not logged in")
		}
		return nil

	case "categories":
		for _, cat := range app.Snapshot().Categories {
			fmt.Fprintf(stdout, "%s  %s %s\n", cat.ID, cat.Emoji, cat.Title)
			for _, c := range cat.Candidates {
				fmt.Fprintf(stdout, "    %-12s %s\n", c.ID, c.Name)
			}
		}
		return nil

	case "vote":
		return vote(ctx, app, opts, renderer, stdout)

	case "results":
		fmt.Fprintln(stdout, renderer.Results(app.Snapshot()))
		return nil

	case "watch":
		fmt.Fprintln(stdout, renderer.Results(app.Snapshot()))
		app.Rendered = func(s client.Snapshot) {
			fmt.Fprintln(stdout, renderer.Results(s))
		}
		return app.Run(ctx)

	case "browse":
		return browse(ctx, app, renderer, stdin, stdout, logger)

	default:
		return errUsage
	}
}

func vote(ctx context.Context, app *client.App, opts options, renderer *client.Renderer, stdout io.Writer) error {
	if !app.User().LoggedIn {
		return errors.New("not logged in: run `slayctl login <email>` first")
	}

	var ref model.CandidateRef
	switch {
	case opts.writeIn != "" && len(opts.args) == 1:
		ref = model.WriteIn(opts.writeIn)
	case opts.writeIn == "" && len(opts.args) == 2:
		ref = model.Static(opts.args[1])
	default:
		return errors.New("usage: slayctl vote <category> <candidate> | slayctl vote <category> --write-in NAME")
	}

	if err := app.Vote(ctx, opts.args[0], ref); err != nil {
		return err
	}
	fmt.Fprintln(stdout, renderer.Results(app.Snapshot()))
	return nil
}

// browse reads one command per line:
//
//	n / p        next / previous category
//	<number>     vote for the nth candidate (1-based)
//	w <name>     vote for a write-in
//	q            quit
//
// Results are redrawn whenever another voter changes something.
func browse(ctx context.Context, app *client.App, renderer *client.Renderer, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	draw := func(s client.Snapshot) {
		fmt.Fprintln(stdout, renderer.Current(s))
		fmt.Fprint(stdout, "> ")
	}
	app.Rendered = draw

	go func() {
		if err := app.Run(ctx); err != nil {
			logger.Warn("change feed stopped", slog.String("error", err.Error()))
		}
	}()

	if !app.User().LoggedIn {
		fmt.Fprintln(stdout, "not logged in: browsing only")
	}
	draw(app.Snapshot())
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "q":
			return nil
		case line == "n":
			app.Next()
		case line == "p":
			app.Prev()
		case strings.HasPrefix(line, "w "):
			name := strings.TrimSpace(strings.TrimPrefix(line, "w "))
			app.SetDraft(name)
			if cat, ok := app.Snapshot().CurrentCategory(); ok {
				_ = app.Vote(ctx, cat.ID, model.WriteIn(name))
			}
		default:
			n, err := strconv.Atoi(line)
			cat, ok := app.Snapshot().CurrentCategory()
			if err != nil || !ok || n < 1 || n > len(cat.Candidates) {
				fmt.Fprintln(stdout, "n, p, <number>, w <name> or q")
				break
			}
			_ = app.Vote(ctx, cat.ID, model.Static(cat.Candidates[n-1].ID))
		}
		draw(app.Snapshot())
	}
	return scanner.Err()
}
