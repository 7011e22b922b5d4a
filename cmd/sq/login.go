package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the sync server",
	Long: `Log in to the sync server and store the session token locally.

Prompts for credentials interactively. In a non-interactive shell the
username and password are read from stdin, one per line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(false)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the sync server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(true)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.tokens.Clear(a.ctx); err != nil {
			return err
		}
		fmt.Println(a.theme.RenderPass("Logged out"))
		return nil
	},
}

func authenticate(register bool) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	username, password, err := promptCredentials()
	if err != nil {
		return err
	}

	var tok string
	if register {
		tok, err = a.client.Register(a.ctx, username, password)
	} else {
		tok, err = a.client.Login(a.ctx, username, password)
	}
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if err := a.tokens.Set(a.ctx, tok); err != nil {
		return err
	}

	if register {
		fmt.Println(a.theme.RenderPass("Account created, logged in as " + username))
	} else {
		fmt.Println(a.theme.RenderPass("Logged in as " + username))
	}
	return nil
}

// promptCredentials collects a username and password, with a form when
// stdin is a terminal and a plain line reader otherwise.
func promptCredentials() (string, string, error) {
	var username, password string

	if term.IsTerminal(int(os.Stdin.Fd())) {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("username cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("password cannot be empty")
					}
					return nil
				}),
		))
		if err := form.Run(); err != nil {
			return "", "", err
		}
		return strings.TrimSpace(username), password, nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(line)

	line, err = reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	password = strings.TrimRight(line, "\r\n")

	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	return username, password, nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
}
