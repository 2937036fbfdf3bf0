// Package cmd wires the tribunal CLI: subcommand definitions, configuration
// loading, and construction of the session/review machinery each command
// drives.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tribunal/internal/config"
	"tribunal/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "tribunal",
	Short: "Multi-agent code review orchestrator",
	Long: `Tribunal runs a panel of interactive AI reviewer CLIs side by side in a
terminal multiplexer, delivers each one a persona and a round-scoped review
prompt, and narrows the severity focus round by round until the panel issues
a ship/no-ship verdict.`,
	SilenceUsage: true,
}

// Execute runs the root command. Precondition failures carry remediation
// text, printed alongside the error before the non-zero exit.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if r := errors.Remediation(err); r != "" {
			fmt.Fprintln(os.Stderr, "remediation: "+r)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default tribunal.yaml in . or $HOME/.config/tribunal)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tribunal")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TRIBUNAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}
