package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/zapr"
	"github.com/jlewi/tesk/cmd/commands"
	"github.com/jlewi/tesk/pkg/config"
	"github.com/jlewi/tesk/pkg/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// N.B these will get set by goreleaser
// https://goreleaser.com/cookbooks/using-main.version
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

type globalOptions struct {
	devLogger  bool
	level      string
	configFile string
}

var (
	gOptions = globalOptions{}

	rootCmd = &cobra.Command{
		Use:   config.AppName,
		Short: "tesk converts GA4GH TES tasks into K8s jobs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.SetupLogger(gOptions.level, gOptions.devLogger)
		},
	}
)

func init() {
	rootCmd.AddCommand(commands.NewConvertCmd(&gOptions.configFile))
	rootCmd.AddCommand(commands.NewConfigCmd(&gOptions.configFile))
	rootCmd.AddCommand(newVersionCmd(os.Stdout))

	rootCmd.PersistentFlags().BoolVar(&gOptions.devLogger, "dev-logger", false, "If true configure the logger for development; i.e. non-json output")
	rootCmd.PersistentFlags().StringVarP(&gOptions.level, config.LevelFlagName, "", "info", "Log level: error info or debug")
	rootCmd.PersistentFlags().StringVar(&gOptions.configFile, config.ConfigFlagName, "", fmt.Sprintf("config file (default is $HOME/.%s/config.yaml)", config.AppName))
}

func newVersionCmd(w io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Return version",
		Example: `tesk version`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(w, "tesk %s, commit %s, built at %s by %s\n", version, commit, date, builtBy)
		},
	}
	return cmd
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		// PersistentPreRun doesn't run when flag parsing fails.
		zapr.NewLogger(zap.L()).Error(err, "main failed")
		os.Exit(1)
	}
}
