package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dustin/go-humanize"
)

var copyCommand = &cobra.Command{
	Use:          "copy <dest> <source>...",
	Short:        "Copy one or more local entries into dest",
	Args:         cobra.MinimumNArgs(2),
	RunE:         copyMain,
	SilenceUsage: true,
}

func copyMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	return service.CopyEntries(arguments[1:], arguments[0], progressPrinter, neverCancelled)
}

var moveCommand = &cobra.Command{
	Use:          "move <dest> <source>...",
	Short:        "Move one or more local entries into dest",
	Args:         cobra.MinimumNArgs(2),
	RunE:         moveMain,
	SilenceUsage: true,
}

func moveMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	return service.MoveEntries(arguments[1:], arguments[0], progressPrinter, neverCancelled)
}

func progressPrinter(bytesDone int64) {
	fmt.Printf("\r%s transferred", humanize.Bytes(uint64(bytesDone)))
}
