package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/browsey/browsey-core/pkg/core"
)

var listDirCommand = &cobra.Command{
	Use:          "list-dir <path>",
	Short:        "List a local directory's entries",
	Args:         cobra.ExactArgs(1),
	RunE:         listDirMain,
	SilenceUsage: true,
}

var listDirConfiguration struct {
	sort string
}

func init() {
	flags := listDirCommand.Flags()
	flags.StringVar(&listDirConfiguration.sort, "sort", "name", "Sort order: name, modified, size, type")
}

func listDirMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	listing, err := service.ListDir(arguments[0], sortKeyFromFlag(listDirConfiguration.sort))
	if err != nil {
		return err
	}
	return printJSON(listing)
}

func sortKeyFromFlag(value string) core.SortKey {
	switch value {
	case "modified":
		return core.SortByModified
	case "size":
		return core.SortBySize
	case "type":
		return core.SortByType
	default:
		return core.SortByName
	}
}

var listFacetsCommand = &cobra.Command{
	Use:          "list-facets <path>",
	Short:        "Compute listing facets (name/type/modified/size) for a directory",
	Args:         cobra.ExactArgs(1),
	RunE:         listFacetsMain,
	SilenceUsage: true,
}

var listFacetsConfiguration struct {
	includeHidden bool
}

func init() {
	flags := listFacetsCommand.Flags()
	flags.BoolVar(&listFacetsConfiguration.includeHidden, "include-hidden", false, "Include dot-prefixed entries")
}

func listFacetsMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	result, err := service.ListFacets(arguments[0], listFacetsConfiguration.includeHidden)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
