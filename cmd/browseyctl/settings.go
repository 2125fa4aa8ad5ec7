package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/core"
	"github.com/browsey/browsey-core/pkg/logging"
)

// withService opens a Service, runs fn against it, and always closes it
// before returning — the shared plumbing every settings subcommand needs
// beyond the one-liner the corresponding Settings method already is.
func withService(fn func(service *core.Service, arguments []string) error) func(*cobra.Command, []string) error {
	return func(command *cobra.Command, arguments []string) error {
		service, err := newService()
		if err != nil {
			return err
		}
		defer service.Close()
		return fn(service, arguments)
	}
}

var settingsCommand = &cobra.Command{
	Use:   "settings",
	Short: "Get or set persisted application settings",
}

func init() {
	settingsCommand.AddCommand(
		settingsGetCommand,
		settingsSetRclonePathCommand,
		settingsSetLogLevelCommand,
		settingsSetThumbnailCacheMaxBytesCommand,
		settingsSetThumbnailPoolThreadsCommand,
		settingsSetShowHiddenFilesCommand,
	)
}

var settingsGetCommand = &cobra.Command{
	Use:          "get",
	Short:        "Print every setting's current value",
	Args:         cobra.NoArgs,
	RunE:         settingsGetMain,
	SilenceUsage: true,
}

func settingsGetMain(command *cobra.Command, arguments []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	defer service.Close()

	s := service.Settings()
	rclonePath, err := s.RclonePath()
	if err != nil {
		return err
	}
	logLevel, err := s.LogLevel()
	if err != nil {
		return err
	}
	thumbnailCacheMaxBytes, err := s.ThumbnailCacheMaxBytes()
	if err != nil {
		return err
	}
	thumbnailPoolThreads, err := s.ThumbnailPoolThreads()
	if err != nil {
		return err
	}
	showHiddenFiles, err := s.ShowHiddenFiles()
	if err != nil {
		return err
	}

	return printJSON(map[string]any{
		"rclone_path":               rclonePath,
		"log_level":                 logLevel.String(),
		"thumbnail_cache_max_bytes": thumbnailCacheMaxBytes,
		"thumbnail_pool_threads":    thumbnailPoolThreads,
		"show_hidden_files":         showHiddenFiles,
	})
}

var settingsSetRclonePathCommand = &cobra.Command{
	Use:          "set-rclone-path <path>",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: withService(func(service *core.Service, arguments []string) error {
		return service.Settings().SetRclonePath(arguments[0])
	}),
}

var settingsSetLogLevelCommand = &cobra.Command{
	Use:          "set-log-level <error|warn|info|debug|trace>",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: withService(func(service *core.Service, arguments []string) error {
		level, err := logLevelFromName(arguments[0])
		if err != nil {
			return err
		}
		return service.Settings().SetLogLevel(level)
	}),
}

var settingsSetThumbnailCacheMaxBytesCommand = &cobra.Command{
	Use:          "set-thumbnail-cache-max-bytes <bytes>",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: withService(func(service *core.Service, arguments []string) error {
		value, err := strconv.ParseInt(arguments[0], 10, 64)
		if err != nil {
			return err
		}
		return service.Settings().SetThumbnailCacheMaxBytes(value)
	}),
}

var settingsSetThumbnailPoolThreadsCommand = &cobra.Command{
	Use:          "set-thumbnail-pool-threads <n>",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: withService(func(service *core.Service, arguments []string) error {
		value, err := strconv.Atoi(arguments[0])
		if err != nil {
			return err
		}
		return service.Settings().SetThumbnailPoolThreads(value)
	}),
}

var settingsSetShowHiddenFilesCommand = &cobra.Command{
	Use:          "set-show-hidden-files <true|false>",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: withService(func(service *core.Service, arguments []string) error {
		value, err := strconv.ParseBool(arguments[0])
		if err != nil {
			return err
		}
		return service.Settings().SetShowHiddenFiles(value)
	}),
}

func logLevelFromName(name string) (logging.Level, error) {
	switch name {
	case "error":
		return logging.LevelError, nil
	case "warn":
		return logging.LevelWarn, nil
	case "info":
		return logging.LevelInfo, nil
	case "debug":
		return logging.LevelDebug, nil
	case "trace":
		return logging.LevelTrace, nil
	default:
		return 0, browseyerr.New(browseyerr.InvalidInput, "unknown log level: "+name)
	}
}
