package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"trojan-manager/internal/command"
	"trojan-manager/internal/config"
	"trojan-manager/internal/database"
	"trojan-manager/internal/logger"
	"trojan-manager/internal/shell"

	"github.com/spf13/pflag"
)

var version = "2.0.0"

type userStore interface {
	command.Store
	Close(ctx context.Context) error
}

// openStore is replaced in tests to run without a database.
var openStore = func(ctx context.Context, cfg *config.DBConfig) (userStore, error) {
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	store, err := database.Open(ctx, cfg.DSN(), cfg.Table)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func main() {
	os.Exit(run(os.Args[1:], nil, os.Stdout, os.Stderr))
}

// run executes one invocation and returns its exit status. A nil stdin
// means the process's own standard input.
func run(argv []string, stdin io.ReadCloser, stdout, stderr io.Writer) int {
	logger.Init(stderr, false)

	flags := pflag.NewFlagSet("trojan-manager", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: trojan-manager [flags] <command> [args...]")
		fmt.Fprintln(stderr, "       trojan-manager [flags] interactive|int")
		flags.PrintDefaults()
	}
	configFile := flags.StringP("config", "c", "", "path to settings file (default: search ./configs, /configs, /etc/trojan-manager)")
	table := flags.StringP("table", "t", "", "user table name, overrides db.table")
	assumeYes := flags.BoolP("yes", "y", false, "answer yes to destructive confirmations")
	verbose := flags.BoolP("verbose", "v", false, "log affected row counts and other diagnostics")
	showVersion := flags.Bool("version", false, "print version and exit")

	if err := flags.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *showVersion {
		fmt.Fprintf(stdout, "Trojan Manager %s\n", version)
		return 0
	}

	cfg, err := loadConfig(*configFile, *table)
	if err != nil {
		logger.Log(logger.ERROR, "Failed to load configuration", err)
		return 1
	}
	logger.Init(stderr, cfg.Log.Verbose || *verbose)

	args := flags.Args()
	if len(args) == 0 {
		logger.Log(logger.WARN, "No commands specified")
		fmt.Fprintln(stdout, `Use "Help" command to list available commands`)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openStore(ctx, &cfg.DB)
	if err != nil {
		logger.Log(logger.ERROR, "Error establishing connection to PostgreSQL", fmt.Sprintf("%s: %+v", cfg.DB.Redacted(), err))
		logger.Log(logger.ERROR, "Please check your settings")
		return 1
	}
	defer store.Close(context.Background())
	logger.Log(logger.DEBUG, "Connected", cfg.DB.Redacted(), " table ", cfg.DB.Table)

	if interactiveMode(args[0]) {
		// readline owns Ctrl-C while the shell is running.
		stop()
		return shell.Interactive(context.Background(), shell.Options{
			Store:     store,
			AssumeYes: *assumeYes,
			Version:   version,
			Stdin:     stdin,
			Stdout:    stdout,
		})
	}

	var in io.Reader = os.Stdin
	if stdin != nil {
		in = stdin
	}
	var confirm command.Confirmer = shell.NewPrompt(shell.NewStdinReader(ctx, in, stdout), stdout, "")
	if *assumeYes {
		confirm = shell.AssumeYes{}
	}
	d := command.NewDispatcher(store, confirm, stdout)
	return shell.RunOnce(ctx, d, args)
}

func loadConfig(file, table string) (*config.Config, error) {
	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}
	if table != "" {
		cfg.DB.Table = table
	}
	return cfg, nil
}

func interactiveMode(arg string) bool {
	mode := strings.ToLower(arg)
	return mode == "interactive" || mode == "int"
}
