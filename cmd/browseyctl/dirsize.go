package main

import (
	"github.com/spf13/cobra"
)

var dirSizeCommand = &cobra.Command{
	Use:          "dir-size <path>...",
	Short:        "Compute the recursive size of one or more directories",
	Args:         cobra.MinimumNArgs(1),
	RunE:         dirSizeMain,
	SilenceUsage: true,
}

var dirSizeConfiguration struct {
	skipPatterns []string
}

func init() {
	flags := dirSizeCommand.Flags()
	flags.StringSliceVar(&dirSizeConfiguration.skipPatterns, "skip", nil, "Glob pattern to skip (repeatable)")
}

func dirSizeMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	result, err := service.DirSizes(arguments, dirSizeConfiguration.skipPatterns)
	if err != nil {
		return err
	}
	return printJSON(result)
}
