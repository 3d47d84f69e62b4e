// Package cmd provides the root command and CLI setup for cratecheck.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cratecheck.dev/pkg/cratecheck/internal/adapter"
	"cratecheck.dev/pkg/cratecheck/internal/controller"
	"cratecheck.dev/pkg/cratecheck/internal/domain"
	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

var sourceFSAdapter adapter.SourceFSAdapter
var manifestAdapter adapter.ManifestAdapter
var gitAdapter adapter.GitAdapter
var rustFileAdapter adapter.RustFileAdapter
var workflow domain.Workflow
var ui controller.UI

var dirFlag string
var oidFlag string
var summaryFlag bool
var diffFlag bool
var verboseFlag bool
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	manifestAdapter = adapter.NewLocalManifestAdapter(sourceFSAdapter)
	gitAdapter = adapter.NewLocalGitAdapter(sourceFSAdapter)
	rustFileAdapter = adapter.NewLocalRustFileAdapter()
	workflow = domain.NewWorkflow(
		sourceFSAdapter,
		manifestAdapter,
		gitAdapter,
		rustFileAdapter,
		ui,
	)
}

const rootLongDescription = `Cratecheck compares the public API of a Rust library crate in the working
tree against the same crate at a commit from its git history, and reports
every public declaration that was removed or changed in a breaking way.

Each finding is printed on its own line:
  Uncompatible: crate::a::(fn name)
  Uncompatible: crate::a::(struct Name) does not exist
  Uncompatible: crate::a module does not exist

No output means no incompatibility was detected.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "cratecheck",
		Short:        "Rust crate API backward-compatibility checker",
		Long:         rootLongDescription,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, workflow)
		},
	}
}

func runCheck(cmd *cobra.Command, wf domain.Workflow) error {
	if wf == nil {
		return fmt.Errorf("workflow not initialized")
	}

	return wf.Check(cmd.Context(), checkArgsFromConfig())
}

func checkArgsFromConfig() domain.CheckArgs {
	return domain.CheckArgs{
		Dir:     m.Path(viper.GetString(dirConfigKey)),
		Oid:     viper.GetString(oidConfigKey),
		Summary: viper.GetBool(summaryConfigKey),
		Diff:    viper.GetBool(diffConfigKey),
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&dirFlag, dirFlagName, "d", viper.GetString(dirConfigKey), "working directory inside the crate")
	bindFlagToConfig(cmd.Flags().Lookup(dirFlagName), dirConfigKey)

	cmd.Flags().StringVarP(&oidFlag, oidFlagName, "o", viper.GetString(oidConfigKey), "historical commit to compare against (default HEAD)")
	bindFlagToConfig(cmd.Flags().Lookup(oidFlagName), oidConfigKey)

	cmd.Flags().BoolVar(&summaryFlag, summaryFlagName, viper.GetBool(summaryConfigKey), "print per-module counts after the findings")
	bindFlagToConfig(cmd.Flags().Lookup(summaryFlagName), summaryConfigKey)

	cmd.Flags().BoolVar(&diffFlag, diffFlagName, viper.GetBool(diffConfigKey), "print old and new shape of incompatible declarations")
	bindFlagToConfig(cmd.Flags().Lookup(diffFlagName), diffConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "enable debug logging")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "write logs to this file instead of stderr")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
