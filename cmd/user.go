/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kodbank/apiserver/internal/db"
	"github.com/kodbank/apiserver/internal/services"
	"github.com/kodbank/apiserver/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// userCmd groups account administration commands.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an account, reading the password from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		return withAccounts(cmd.Context(), func(accounts *services.AccountService) error {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			password, err := readPassword(cmd.InOrStdin())
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			user, err := accounts.Register(cmd.Context(), services.RegisterInput{
				Name:     name,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s registered with ID %d\n", user.Email, user.ID)
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete an account and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccounts(cmd.Context(), func(accounts *services.AccountService) error {
			if err := accounts.DeleteByEmail(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userDeleteCmd)

	userAddCmd.Flags().String("name", "", "display name")
	userAddCmd.Flags().String("email", "", "login email")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("email")
}

func withAccounts(ctx context.Context, fn func(*services.AccountService) error) error {
	cfg, _ := loadRuntime()

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	if conn.Dialect == db.SQLite {
		if err := db.MigrateUp(conn); err != nil {
			return err
		}
	}
	return fn(services.NewAccountService(store.NewUserRepository(conn), nil))
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
