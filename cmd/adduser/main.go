package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"budgetflow/internal/cli"
	"budgetflow/internal/log"
	"budgetflow/internal/session"
)

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
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address")
	fullName := fs.String("name", "", "Full name (defaults to the username)")
	phone := fs.String("phone", "", "Phone number (optional)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "", "Single database file for all stores (default: USERS_DB_PATH and BUDGET_DB_PATH)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var missing []string
	if *username == "" {
		missing = append(missing, "user")
	}
	if *email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> -email <email> [-name <full name>] [-phone <phone>] [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	if *fullName == "" {
		*fullName = *username
	}

	password, confirm := *passwordFlag, *passwordFlag
	if password == "" {
		prompt := cli.NewPrompter(stdin, stdout)
		var err error
		if password, err = prompt.Secret("Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if strings.TrimSpace(password) == "" {
			return fmt.Errorf("password cannot be empty")
		}
		if confirm, err = prompt.Secret("Confirm password: "); err != nil {
			return fmt.Errorf("failed to read password confirmation: %w", err)
		}
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx := context.Background()
	db, logger, err := cli.OpenDB(ctx, *dbPath, stderr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	log.SetDefault(logger)

	mgr := session.NewManager(db, logger)
	ok, msg := mgr.Register(ctx, session.RegisterInput{
		Username:        *username,
		Email:           *email,
		FullName:        *fullName,
		Password:        password,
		ConfirmPassword: confirm,
		PhoneNumber:     *phone,
	})
	if !ok {
		switch msg {
		case session.MsgUsernameExists:
			return fmt.Errorf("user %s already exists", *username)
		case session.MsgEmailExists:
			return fmt.Errorf("email %s is already registered", *email)
		}
		return fmt.Errorf("failed to create user: %s", msg)
	}

	user := mgr.CurrentUser()
	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}
