// Package prompt provides the interactive questions asked while a blueprint
// is materialized.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoInput is returned when the input stream ends before an answer.
var ErrNoInput = errors.New("no input available")

// Prompter asks the user yes/no questions and for free-form values.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
	Input(ctx context.Context, message, def string) (string, error)
}

// Terminal reads answers line by line from in and writes questions to out.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm repeats the question until it gets y/yes or n/no.
func (t *Terminal) Confirm(ctx context.Context, message string) (bool, error) {
	for {
		fmt.Fprintf(t.out, "%s (y/n): ", message)
		line, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(t.out, "Please enter 'y' or 'n'")
		}
	}
}

// Input returns def when the answer is blank.
func (t *Terminal) Input(ctx context.Context, message, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.out, "%s (default: %s): ", message, def)
	} else {
		fmt.Fprintf(t.out, "%s: ", message)
	}

	line, err := t.readLine(ctx)
	if err != nil {
		return "", err
	}
	if answer := strings.TrimSpace(line); answer != "" {
		return answer, nil
	}
	return def, nil
}

// readLine blocks on the reader in a goroutine so an interrupt can end the
// wait. An abandoned read is left behind; callers stop prompting once the
// context is done.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && r.line != "" {
				return r.line, nil
			}
			if errors.Is(r.err, io.EOF) {
				return "", ErrNoInput
			}
			return "", fmt.Errorf("failed to read answer: %w", r.err)
		}
		return r.line, nil
	}
}

// Always answers every confirmation with answer and every input with its
// default. It never blocks.
func Always(answer bool) Prompter {
	return always(answer)
}

type always bool

func (a always) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(a), nil
}

func (a always) Input(ctx context.Context, message, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return def, nil
}
