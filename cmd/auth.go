package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// promptPassword reads a password without echoing when stdin is a
// terminal, falling back to a plain line read otherwise (pipes, tests).
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		defer fmt.Fprintln(os.Stderr)
		raw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store the API credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}

		creds, err := a.client.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		if err := a.creds.Save(creds); err != nil {
			return err
		}
		cmd.Printf("Logged in as %s.\n", creds.Name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored API credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.creds.Clear(); err != nil {
			return err
		}
		cmd.Println("Logged out.")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <name> <email>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}

		if err := a.client.Register(cmd.Context(), args[0], args[1], password); err != nil {
			return err
		}
		cmd.Println("Account created. You can now log in.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd)
}
