package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Flyrell/gatepass/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "gatepass",
	Short:             "Role-gated member access control for events",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupApp,
}

var (
	// activeLang is the message language, known once the config is loaded.
	activeLang = envLang()
	closeLog   = func() error { return nil }
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(responsableCmd)
	rootCmd.AddCommand(scannerCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.SetHelpFunc(helpFunc)
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "%s\n", Error(Localize(err, activeLang)))
	}
	_ = closeLog()
	return err
}

func setupApp(cmd *cobra.Command, _ []string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	a, err := prepareApp(cmd, homeDir, time.Now)
	if err != nil {
		return err
	}
	closeLog = logging.Setup(a.Config.Log)
	cmd.SetContext(withApp(cmd.Context(), a))
	return nil
}

func envLang() string {
	if lang := os.Getenv("GATEPASS_LANG"); lang == "ar" {
		return lang
	}
	return "en"
}
