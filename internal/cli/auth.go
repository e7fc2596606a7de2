package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada-sync/internal/auth"
	"github.com/idilsaglam/tada-sync/internal/ui"
)

func (a *app) newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Token authentication (login, logout, status, whoami)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return usagef("usage: todo auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(a.newLoginCmd(), a.newLogoutCmd(), a.newStatusCmd(), a.newWhoAmICmd())
	return cmd
}

func (a *app) newLoginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a token for the data service",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Paste your token: ")
				sc := bufio.NewScanner(cmd.InOrStdin())
				sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
				if !sc.Scan() {
					if err := sc.Err(); err != nil {
						return fmt.Errorf("read token: %w", err)
					}
					return errors.New("read token: no input")
				}
				token = sc.Text()
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err := a.store.SetToken(token, nil); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			s, err := auth.Load(a.store)
			if err != nil {
				return err
			}
			a.session = s
			a.log.Info("logged in", "subject", s.Subject)
			if s.LoginID != "" {
				ui.OK(cmd.OutOrStdout(), "logged in as "+s.LoginID)
			} else {
				ui.OK(cmd.OutOrStdout(), "logged in")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token to save (read from stdin when empty)")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.SignOut(); err != nil {
				if errors.Is(err, auth.ErrEnvToken) {
					ui.OK(cmd.OutOrStdout(), err.Error())
					return nil
				}
				return err
			}
			a.log.Info("logged out")
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			s := a.session
			if s.Token == nil {
				fmt.Fprintln(w, ui.Current().Muted.Render("not logged in"))
				fmt.Fprintln(w, "Run: todo auth login")
				return nil
			}
			fmt.Fprintf(w, "source: %s\n", s.Token.Source)
			if s.ExpiresAt != nil {
				fmt.Fprintf(w, "expires: %s", s.ExpiresAt.UTC().Format(time.RFC3339))
				if s.Expired() {
					fmt.Fprint(w, " "+ui.Current().Error.Render("(expired)"))
				}
				fmt.Fprintln(w)
			} else {
				fmt.Fprintln(w, "expires: (unknown)")
			}
			fmt.Fprintln(w, "env override: TADA_TOKEN")
			return nil
		},
	}
}

func (a *app) newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity carried by the token",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			s := a.session
			if s.Token == nil {
				return auth.ErrNotSignedIn
			}
			if s.Claims == nil {
				fmt.Fprintln(w, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(w, "source:", s.Token.Source)
				return nil
			}
			fmt.Fprintln(w, "login:", s.LoginID)
			fmt.Fprintln(w, "subject:", s.Subject)
			b, err := json.MarshalIndent(s.Claims, "", "  ")
			if err != nil {
				return fmt.Errorf("whoami: %w", err)
			}
			fmt.Fprintln(w, "JWT payload:")
			fmt.Fprintln(w, string(b))
			return nil
		},
	}
}
