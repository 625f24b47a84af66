package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/protocol"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// promptPassword reads a password without echo from a terminal, or one line
// from the command input otherwise.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password")
	}
	return pw, nil
}

func countUsers(ctx context.Context, db types.Database) (int64, error) {
	users, err := db.Collection(types.UsersCollection)
	if err != nil {
		return 0, err
	}
	return users.CountDocuments(ctx, nil)
}

func newUserCmd(a *app) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	user.AddCommand(newUserAddCmd(a), newUserBlockCmd(a, true), newUserBlockCmd(a, false), newUserPasswdCmd(a),
		newUserRenameCmd(a), newUserDeleteCmd(a))
	return user
}

func newUserAddCmd(a *app) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user; the password is read from the terminal or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			password, err := promptPassword(cmd, "Password: ")
			if err != nil {
				return userError(err)
			}
			svc, _, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := svc.CreateUser(ctx, args[0], password, role); err != nil {
				if errors.Is(err, protocol.ErrUserExists) || errors.Is(err, protocol.ErrMissingField) {
					return userError(err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q created (%s)\n", args[0], role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", types.RoleClerk, "user role: admin or escrevente")
	return cmd
}

func newUserBlockCmd(a *app, blocked bool) *cobra.Command {
	use, verb := "block", "blocked"
	if !blocked {
		use, verb = "unblock", "unblocked"
	}
	return &cobra.Command{
		Use:   use + " <username>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.SetBlocked(ctx, args[0], blocked); err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return userError(fmt.Errorf("user %q: %w", args[0], err))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q %s\n", args[0], verb)
			return nil
		},
	}
}

func newUserPasswdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			password, err := promptPassword(cmd, "New password: ")
			if err != nil {
				return userError(err)
			}
			svc, _, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.SetPassword(ctx, args[0], password); err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return userError(fmt.Errorf("user %q: %w", args[0], err))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password of %q changed\n", args[0])
			return nil
		},
	}
}

func newUserRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <username> <new-username>",
		Short: "Rename a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.RenameUser(ctx, args[0], args[1]); err != nil {
				if errors.Is(err, types.ErrNotFound) || errors.Is(err, protocol.ErrUserExists) || errors.Is(err, protocol.ErrMissingField) {
					return userError(fmt.Errorf("user %q: %w", args[0], err))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q renamed to %q\n", args[0], strings.TrimSpace(args[1]))
			return nil
		},
	}
}

func newUserDeleteCmd(a *app) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if as == "" {
				as = a.cfg.AdminUser
			}
			svc, _, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.DeleteUser(ctx, args[0], as); err != nil {
				if errors.Is(err, types.ErrNotFound) || errors.Is(err, protocol.ErrSelfDelete) {
					return userError(fmt.Errorf("user %q: %w", args[0], err))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q deleted\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "user performing the deletion (default: configured admin user)")
	return cmd
}
