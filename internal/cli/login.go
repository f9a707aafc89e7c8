package cli

import (
	"fmt"
	"strings"

	"github.com/Flyrell/gatepass/internal/session"
	"github.com/spf13/cobra"
)

var loginCmd = LeafCommand{
	Use:   "login",
	Short: "Log in to the access-control backend",
	StrFlags: []StringFlag{
		{Name: "email", Usage: "account email (prompted when omitted)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		return runLogin(cmd, a, email, NewPromptKit())
	},
}.Build()

var logoutCmd = LeafCommand{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return runLogout(cmd, a)
	},
}.Build()

var whoamiCmd = LeafCommand{
	Use:     "whoami",
	Short:   "Show the logged-in user and their home command",
	Aliases: []string{"home"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return runWhoami(cmd, a)
	},
}.Build()

func runLogin(cmd *cobra.Command, a *App, email string, kit PromptKit) error {
	lang := a.Lang()
	email = strings.TrimSpace(email)
	if email == "" {
		v, err := kit.Prompt(T(lang, msgEmail))
		if err != nil {
			return err
		}
		email = strings.TrimSpace(v)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password, err := kit.Password(T(lang, msgPassword))
	if err != nil {
		return err
	}

	res, err := a.Client().Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	s := &session.Session{
		ID:    res.User.ID,
		Name:  res.User.Name,
		Role:  session.ParseRole(res.User.Role),
		Token: res.Token,
	}
	if err := session.Save(a.HomeDir, s); err != nil {
		return err
	}
	a.Session = s

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf(T(a.Lang(), msgLoggedInAs), Primary(s.Name), s.Role)))
	if home := session.HomeCommand(s.Role); home != "" {
		_, _ = fmt.Fprintf(w, "%s\n", Silent(fmt.Sprintf(T(a.Lang(), msgNextCommand), home)))
	}
	return nil
}

func runLogout(cmd *cobra.Command, a *App) error {
	if err := session.Clear(a.HomeDir); err != nil {
		return err
	}
	a.Session = nil
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(T(a.Lang(), msgLoggedOut)))
	return nil
}

func runWhoami(cmd *cobra.Command, a *App) error {
	s, err := session.Authorize(a.HomeDir, a.Now())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s %s\n", Primary(s.Name), Silent(fmt.Sprintf("(id %s, %s)", s.ID, s.Role)))
	if exp, ok := s.ExpiresAt(); ok {
		_, _ = fmt.Fprintf(w, "%s\n", Silent("session expires "+exp.Local().Format("2006-01-02 15:04")))
	}
	if home := session.HomeCommand(s.Role); home != "" {
		_, _ = fmt.Fprintf(w, "%s\n", Text("home: gatepass "+home))
	}
	return nil
}
