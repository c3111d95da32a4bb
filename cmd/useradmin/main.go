package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"budgetflow/internal/cli"
	"budgetflow/internal/log"
	"budgetflow/internal/storage"
)

const usage = `Usage: useradmin [-db <db_path>] <command> [flags]

Commands:
  list                 List all users
  delete -id <id>      Delete a user with all their transactions and savings goals
  reset -id <id>       Delete all transactions of a user
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("useradmin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	dbPath := fs.String("db", "", "Single database file for all stores (default: USERS_DB_PATH and BUDGET_DB_PATH)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("missing command")
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "list", "delete", "reset":
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	var target targetFlags
	if cmd != "list" {
		var err error
		if target, err = parseTarget(cmd, cmdArgs, stderr); err != nil {
			return err
		}
	}

	ctx := context.Background()
	db, logger, err := cli.OpenDB(ctx, *dbPath, stderr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	log.SetDefault(logger)

	a := &admin{db: db, logger: logger, prompt: cli.NewPrompter(stdin, stdout), out: stdout}
	switch cmd {
	case "delete":
		return a.deleteUser(ctx, target)
	case "reset":
		return a.resetTransactions(ctx, target)
	default:
		return a.listUsers(ctx)
	}
}

type targetFlags struct {
	id  int64
	yes bool
}

func parseTarget(cmd string, args []string, stderr io.Writer) (targetFlags, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var t targetFlags
	fs.Int64Var(&t.id, "id", 0, "User ID")
	fs.BoolVar(&t.yes, "yes", false, "Do not ask for confirmation")

	if err := fs.Parse(args); err != nil {
		return t, err
	}
	if t.id <= 0 {
		return t, fmt.Errorf("%s: -id must be a positive user ID", cmd)
	}
	return t, nil
}

type admin struct {
	db     *storage.DB
	logger *log.Logger
	prompt *cli.Prompter
	out    io.Writer
}

func (a *admin) listUsers(ctx context.Context) error {
	users, err := a.db.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tFULL NAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.FullName, u.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func (a *admin) deleteUser(ctx context.Context, t targetFlags) error {
	user, err := a.db.GetUserByID(ctx, t.id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %d not found", t.id)
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !t.yes {
		ok, err := a.prompt.Confirm(fmt.Sprintf("Delete user %s and all their data?", user.Username))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Aborted")
			return nil
		}
	}

	removed, del, err := a.db.DeleteUserCascade(ctx, t.id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !removed {
		return fmt.Errorf("user %d not found", t.id)
	}

	fmt.Fprintf(a.out, "Deleted user %s (%d transactions, %d savings goals)\n",
		user.Username, del.Transactions, del.SavingsGoals)
	return nil
}

func (a *admin) resetTransactions(ctx context.Context, t targetFlags) error {
	user, err := a.db.GetUserByID(ctx, t.id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %d not found", t.id)
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !t.yes {
		ok, err := a.prompt.Confirm(fmt.Sprintf("Delete all transactions of %s?", user.Username))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Aborted")
			return nil
		}
	}

	n, err := a.db.DeleteTransactionsByUser(ctx, t.id)
	if err != nil {
		return fmt.Errorf("failed to reset transactions: %w", err)
	}

	a.logger.InfoContext(ctx, "Transactions reset", log.FieldUserID, t.id, log.FieldCount, n)
	fmt.Fprintf(a.out, "Deleted %d transactions of %s\n", n, user.Username)
	return nil
}
