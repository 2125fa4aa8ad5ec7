package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var extractCommand = &cobra.Command{
	Use:          "extract <archive>...",
	Short:        "Extract one or more archives next to their source path",
	Args:         cobra.MinimumNArgs(1),
	RunE:         extractMain,
	SilenceUsage: true,
}

var extractConfiguration struct {
	skipPatterns []string
}

func init() {
	flags := extractCommand.Flags()
	flags.StringSliceVar(&extractConfiguration.skipPatterns, "skip", nil, "Glob pattern of entries to skip (repeatable)")
}

func extractMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	progress := func(bytesWritten int64) {
		fmt.Printf("\r%s extracted", humanize.Bytes(uint64(bytesWritten)))
	}

	if len(arguments) == 1 {
		result, err := service.ExtractArchive(arguments[0], extractConfiguration.skipPatterns, progress, neverCancelled)
		fmt.Println()
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	outcomes := service.ExtractArchives(arguments, extractConfiguration.skipPatterns, progress, neverCancelled)
	fmt.Println()
	return printJSON(outcomes)
}
