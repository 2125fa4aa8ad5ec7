package main

import (
	"github.com/spf13/cobra"

	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

var renameCommand = &cobra.Command{
	Use:          "rename <path> <new-name>",
	Short:        "Rename a single filesystem entry",
	Args:         cobra.ExactArgs(2),
	RunE:         renameMain,
	SilenceUsage: true,
}

func renameMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	return service.RenameEntry(arguments[0], arguments[1], neverCancelled)
}

var undoCommand = &cobra.Command{
	Use:          "undo",
	Short:        "Undo the most recently applied action",
	Args:         cobra.NoArgs,
	RunE:         undoMain,
	SilenceUsage: true,
}

func undoMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	return service.UndoAction(neverCancelled)
}

var redoCommand = &cobra.Command{
	Use:          "redo",
	Short:        "Redo the most recently undone action",
	Args:         cobra.NoArgs,
	RunE:         redoMain,
	SilenceUsage: true,
}

func redoMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	return service.RedoAction(neverCancelled)
}

// neverCancelled is shared by every CLI invocation: a browseyctl command
// runs a single operation to completion and exits, so there is no
// mid-flight cancellation source to wire in (the GUI shell's task
// registry tokens fill this role there).
var neverCancelled fsprimitives.Cancelled = func() bool { return false }
