// Command browseyctl is a thin command-line shell over pkg/core's Service,
// exercising the command surface spec section 6 names. It is not the
// desktop application itself — that lives behind a UI toolkit outside
// this module's scope — but every mutation and query it can express maps
// one-to-one onto a Service method. Grounded on the teacher's cmd/mutagen
// main.go: a single rootCommand built in an init(), with each subcommand
// group registered from its own file's init() and a bare main() that
// just executes the root command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/browsey/browsey-core/pkg/logging"
)

func rootMain(command *cobra.Command, arguments []string) {
	command.Help()
}

// applyRootLogLevel sets logging.RootLogger's verbosity from --log-level
// before any subcommand runs, so newService's RootLogger-derived loggers
// already reflect it.
func applyRootLogLevel(command *cobra.Command, arguments []string) error {
	level, err := logLevelFromName(rootConfiguration.logLevel)
	if err != nil {
		return err
	}
	logging.RootLogger.SetLevel(level)
	return nil
}

var rootCommand = &cobra.Command{
	Use:           "browseyctl",
	Short:         "browseyctl drives browsey's filesystem, cloud, and task engine from the command line.",
	Run:           rootMain,
	PersistentPreRunE: applyRootLogLevel,
}

var rootConfiguration struct {
	help     bool
	logLevel string
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "info", "Log verbosity: error, warn, info, debug, trace")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		listDirCommand,
		listFacetsCommand,
		renameCommand,
		undoCommand,
		redoCommand,
		copyCommand,
		moveCommand,
		trashCommand,
		dirSizeCommand,
		extractCommand,
		settingsCommand,
	)
}

// Execute runs the root command, exiting the process with status 1 on
// failure, the same top-level error handling convention the teacher's own
// rootCommand.Execute() caller uses.
func Execute() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "browseyctl:", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
