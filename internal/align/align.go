// Package align runs a multiple-sequence aligner over finished clusters.
//
// The aligner itself is external. Command feeds it FASTA on stdin and takes
// the alignment from stdout; AlignAll spreads clusters over a bounded pool.
package align

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Entry is one sequence handed to the aligner.
type Entry struct {
	Name     string
	Sequence string
}

// Aligner turns a cluster's sequences into one alignment.
type Aligner interface {
	Align(ctx context.Context, entries []Entry) (string, error)
}

// Func adapts a plain function to Aligner.
type Func func(ctx context.Context, entries []Entry) (string, error)

func (f Func) Align(ctx context.Context, entries []Entry) (string, error) { return f(ctx, entries) }

// Command runs Path with Args, writing the entries as FASTA to its stdin.
type Command struct {
	Path string
	Args []string
}

// ParseCommand splits a command line on whitespace.
func ParseCommand(line string) (Command, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return Command{}, errors.New("empty aligner command")
	}
	return Command{Path: f[0], Args: f[1:]}, nil
}

func (c Command) Align(ctx context.Context, entries []Entry) (string, error) {
	var in bytes.Buffer
	if err := WriteFASTA(&in, entries); err != nil {
		return "", err
	}
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = &in
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", c.Path, err, msg)
		}
		return "", fmt.Errorf("%s: %w", c.Path, err)
	}
	return out.String(), nil
}

// WriteFASTA writes entries as ">name\nsequence\n" records.
func WriteFASTA(w *bytes.Buffer, entries []Entry) error {
	for _, e := range entries {
		if e.Name == "" {
			return errors.New("alignment entry without a name")
		}
		w.WriteByte('>')
		w.WriteString(e.Name)
		w.WriteByte('\n')
		w.WriteString(e.Sequence)
		w.WriteByte('\n')
	}
	return nil
}
