package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LineReader is the part of *readline.Instance the shell depends on.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

type readResult struct {
	line string
	err  error
}

// stdinReader reads plain lines, for one-shot mode where no line editor
// is installed. A pending read is abandoned when ctx is done, so an
// interrupt at a prompt is not held up by a blocked stdin.
type stdinReader struct {
	ctx     context.Context
	r       *bufio.Reader
	w       io.Writer
	prompt  string
	pending chan readResult
}

func NewStdinReader(ctx context.Context, in io.Reader, out io.Writer) LineReader {
	return &stdinReader{ctx: ctx, r: bufio.NewReader(in), w: out}
}

func (s *stdinReader) SetPrompt(prompt string) {
	s.prompt = prompt
}

func (s *stdinReader) Readline() (string, error) {
	fmt.Fprint(s.w, s.prompt)

	// Only one read may be outstanding on the underlying reader.
	if s.pending == nil {
		ch := make(chan readResult, 1)
		go func() {
			line, err := s.r.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}()
		s.pending = ch
	}

	var res readResult
	select {
	case <-s.ctx.Done():
		fmt.Fprintln(s.w)
		return "", s.ctx.Err()
	case res = <-s.pending:
		s.pending = nil
	}

	if res.err != nil && !(errors.Is(res.err, io.EOF) && res.line != "") {
		return "", res.err
	}
	return strings.TrimRight(res.line, "\r\n"), nil
}

// Prompt asks yes/no questions on a LineReader. Anything other than an
// explicit yes counts as no; unrecognised answers are asked again.
type Prompt struct {
	rd      LineReader
	out     io.Writer
	restore string
}

func NewPrompt(rd LineReader, out io.Writer, restore string) *Prompt {
	return &Prompt{rd: rd, out: out, restore: restore}
}

func (p *Prompt) Confirm(question string) (bool, error) {
	p.rd.SetPrompt(question + " [y/N]: ")
	defer p.rd.SetPrompt(p.restore)

	for {
		line, err := p.rd.Readline()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer yes or no")
	}
}

// AssumeYes answers every confirmation with yes.
type AssumeYes struct{}

func (AssumeYes) Confirm(string) (bool, error) {
	return true, nil
}
