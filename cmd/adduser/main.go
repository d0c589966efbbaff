// adduser provisions a user row in the users sheet of the configured backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"expenseportal/internal/backend"
	"expenseportal/internal/config"
	"expenseportal/internal/core"
	ports "expenseportal/internal/sheets"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	id := fs.String("id", "", "User ID")
	name := fs.String("name", "", "Display name")
	pin := fs.String("pin", "", "4-digit PIN")
	role := fs.String("role", string(core.RoleMember), "Role (member or admin)")
	inactive := fs.Bool("inactive", false, "Create the account disabled")

	if err := fs.Parse(args); err != nil {
		return err
	}

	*id = strings.TrimSpace(*id)
	*name = strings.TrimSpace(*name)
	*pin = strings.TrimSpace(*pin)

	if *id == "" || *name == "" || *pin == "" {
		fmt.Fprintln(stdout, "Usage: adduser -id <id> -name <name> -pin <pin> [-role member|admin] [-inactive]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: id, name, pin")
	}
	if len(*pin) != 4 || strings.Trim(*pin, "0123456789") != "" {
		return fmt.Errorf("pin must be exactly 4 digits")
	}
	if !core.Role(*role).IsValid() {
		return fmt.Errorf("role must be %q or %q", core.RoleMember, core.RoleAdmin)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	result, err := backend.NewFactory(nil).Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	rows, err := result.Rows.GetRange(ctx, cfg.UsersSheet, ports.UsersRange)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(row[0]) == *id {
			return fmt.Errorf("user %s already exists", *id)
		}
	}

	active := "TRUE"
	if *inactive {
		active = "FALSE"
	}
	row := []string{*id, *name, *pin, *role, active}
	if _, err := result.Rows.AppendRows(ctx, cfg.UsersSheet, ports.UsersRange, [][]string{row}); err != nil {
		return fmt.Errorf("append user row: %w", err)
	}

	fmt.Fprintf(stdout, "User %s (%s) created with role %s\n", *id, *name, *role)
	return nil
}
