// Package cli holds the pieces shared by the command-line tools: opening the
// stores from flags or the environment, and reading answers from stdin.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"budgetflow/internal/config"
	"budgetflow/internal/log"
	"budgetflow/internal/storage"
)

// OpenDB opens the stores. A non-empty dbPath puts both stores in that one
// file; otherwise the paths come from the environment (see config.Load).
// Log records go to logOut.
func OpenDB(ctx context.Context, dbPath string, logOut io.Writer) (*storage.DB, *log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if dbPath != "" {
		cfg.UsersDBPath, cfg.BudgetDBPath = dbPath, dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.Component = log.ComponentCLI
	logCfg.Output = logOut
	logger := log.New(logCfg)

	db, err := storage.Open(ctx, storage.Options{
		UsersPath:  cfg.UsersDBPath,
		BudgetPath: cfg.BudgetDBPath,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return db, logger, nil
}

// Prompter reads answers from stdin. Terminal input is read without echo
// for secrets; anything else (pipes, tests) is read line by line.
type Prompter struct {
	in  io.Reader
	out io.Writer
	r   *bufio.Reader
}

// NewPrompter creates a Prompter that writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, r: bufio.NewReader(in)}
}

// Secret prints label and reads a line without echoing it on a terminal.
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprint(p.out, label)
	defer fmt.Fprintln(p.out) // newline after hidden input

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return p.line()
}

// Confirm asks a yes/no question. Only "y" or "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	answer, err := p.line()
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *Prompter) line() (string, error) {
	s, err := p.r.ReadString('\n')
	if err != nil && !(err == io.EOF && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}
