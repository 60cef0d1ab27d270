// Package shell drives the command dispatcher from the process arguments or
// from an interactive line editor.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"trojan-manager/internal/command"
	"trojan-manager/internal/logger"

	"github.com/chzyer/readline"
)

const prompt = "[trojan]> "

var errPanic = errors.New("command panicked")

// dispatch runs one command, converting a panic into exit code 1 with the
// stack written to the log.
func dispatch(ctx context.Context, d *command.Dispatcher, args []string) (code int, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log(logger.ERROR, "Exception caught", fmt.Sprintf("%v\n%s", r, debug.Stack()))
			code, err = 1, errPanic
		}
	}()
	return d.Dispatch(ctx, args)
}

// RunOnce executes args as a single command and returns the exit code.
func RunOnce(ctx context.Context, d *command.Dispatcher, args []string) int {
	code, err := dispatch(ctx, d, args)
	if errors.Is(err, command.ErrQuit) {
		return 0
	}
	return code
}

func PrintBanner(w io.Writer, version string) {
	fmt.Fprintf(w, "Trojan Manager %s\n", version)
	fmt.Fprintln(w, `Type "Help" to list available commands, "Exit" to leave`)
}

// Loop reads lines from rd until Exit, end of input or an interrupt, all
// of which return 0. A panicking command ends the session with 1.
func Loop(ctx context.Context, rd LineReader, d *command.Dispatcher) int {
	for {
		line, err := rd.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				logger.Log(logger.WARN, "Exiting")
				return 0
			}
			logger.Log(logger.ERROR, "Failed to read input", err)
			return 1
		}

		_, err = dispatch(ctx, d, strings.Fields(line))
		switch {
		case errors.Is(err, command.ErrQuit):
			return 0
		case errors.Is(err, errPanic):
			return 1
		}
	}
}

// Options configures Interactive. A non-nil Stdin is read as a plain line
// stream rather than a terminal; nil means os.Stdin.
type Options struct {
	Store     command.Store
	AssumeYes bool
	Version   string
	Stdin     io.ReadCloser
	Stdout    io.Writer
}

// Interactive prints the banner and runs the REPL with tab completion over
// the command names.
func Interactive(ctx context.Context, opts Options) int {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	PrintBanner(out, opts.Version)

	rlConfig := &readline.Config{
		Prompt:          prompt,
		AutoComplete:    completer{},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	}
	if opts.Stdin != nil {
		rlConfig.Stdin = opts.Stdin
		rlConfig.FuncIsTerminal = func() bool { return false }
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		logger.Log(logger.ERROR, "Failed to initialise line editor", err)
		return 1
	}
	defer rl.Close()

	var confirm command.Confirmer = NewPrompt(rl, rl.Stdout(), prompt)
	if opts.AssumeYes {
		confirm = AssumeYes{}
	}

	d := command.NewDispatcher(opts.Store, confirm, rl.Stdout())
	return Loop(ctx, rl, d)
}
