package cmd

import (
	"github.com/spf13/cobra"

	"github.com/user/seccat-audit/pkg/adk"
	"github.com/user/seccat-audit/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "seccat-audit",
	Short: "Correlate security scan evidence with a compliance checklist",
	Long: `seccat-audit reads a checklist of security requirements, gathers evidence
from vulnerability, mobile and SAST reports plus a pattern scan of the source
tree, and asks a language model for a verdict per requirement. Without a
configured model every requirement is marked Insufficient_Evidence.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		adk.DebugEnabled = DebugMode
		config.Path = ConfigPath
	},
}

var (
	DebugMode  bool
	ConfigPath string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "Config file (default ~/.seccat-audit/config.yaml)")
}
