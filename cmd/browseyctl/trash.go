package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trashCommand = &cobra.Command{
	Use:   "trash",
	Short: "Move entries to, list, restore from, or purge the trash",
}

func init() {
	trashCommand.AddCommand(trashSendCommand, trashListCommand, trashRestoreCommand, trashPurgeCommand)
}

var trashSendCommand = &cobra.Command{
	Use:          "send <path>...",
	Short:        "Move one or more entries to the trash",
	Args:         cobra.MinimumNArgs(1),
	RunE:         trashSendMain,
	SilenceUsage: true,
}

func trashSendMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	ids, err := service.MoveToTrashMany(arguments, func(done, total int) {
		fmt.Printf("\rtrashed %d/%d", done, total)
	})
	fmt.Println()
	if err != nil {
		return err
	}
	return printJSON(ids)
}

var trashListCommand = &cobra.Command{
	Use:          "list",
	Short:        "List items currently in the trash",
	Args:         cobra.NoArgs,
	RunE:         trashListMain,
	SilenceUsage: true,
}

func trashListMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	items, err := service.ListTrash()
	if err != nil {
		return err
	}
	return printJSON(items)
}

var trashRestoreCommand = &cobra.Command{
	Use:          "restore <id>...",
	Short:        "Restore trashed items to their original location",
	Args:         cobra.MinimumNArgs(1),
	RunE:         trashRestoreMain,
	SilenceUsage: true,
}

func trashRestoreMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	return service.RestoreTrashItems(arguments)
}

var trashPurgeCommand = &cobra.Command{
	Use:          "purge <id>...",
	Short:        "Permanently delete trashed items",
	Args:         cobra.MinimumNArgs(1),
	RunE:         trashPurgeMain,
	SilenceUsage: true,
}

func trashPurgeMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	return service.PurgeTrashItems(arguments)
}
