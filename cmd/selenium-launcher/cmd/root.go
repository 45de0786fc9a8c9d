package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oshokin/selenium-launcher/internal/config"
	"github.com/oshokin/selenium-launcher/internal/logger"
	"github.com/oshokin/selenium-launcher/internal/service/artifact"
	"github.com/oshokin/selenium-launcher/internal/service/launcher"
	"github.com/oshokin/selenium-launcher/internal/version"
)

const (
	settingsFlag = "settings"
	paramsFlag   = "params"
	logLevelFlag = "log-level"
	forceFlag    = "force"
)

var (
	// flags resolves command line values with SELENIUM_LAUNCHER_* environment fallbacks.
	flags = newFlagResolver()

	// exitCode is what the process exits with once the command returns.
	exitCode int

	// rootCmd checks preconditions and runs the Selenium server.
	rootCmd = &cobra.Command{
		Use:   "selenium-launcher",
		Short: "Launch the Selenium standalone server.",
		Long: `Checks that Java is available, loads server parameters from params.toml,
makes sure the configured port is free, finds the newest local Selenium server
archive (downloading the latest release when there is none) and runs it.

The launcher exits with the server's exit code.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := launcher.Run(cmd.Context(), &launcher.Options{
				ConfigPath: flags.GetString(settingsFlag),
				ParamsPath: flags.GetString(paramsFlag),
				LogLevel:   flags.GetString(logLevelFlag),
			})

			exitCode = code

			return err
		},
	}

	// downloadCmd fetches the latest server archive.
	downloadCmd = &cobra.Command{
		Use:           "download",
		Short:         "Download the latest Selenium server archive.",
		Long:          `Looks up the latest Selenium release and downloads its server archive unless a file with the same name is already present.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return artifact.Run(cmd.Context(), &artifact.Options{
				ConfigPath: flags.GetString(settingsFlag),
				LogLevel:   flags.GetString(logLevelFlag),
			})
		},
	}

	// initCmd writes a settings file with defaults.
	initCmd = &cobra.Command{
		Use:           "init",
		Short:         "Write a settings file with default values.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.GetString(settingsFlag)
			if path == "" {
				path = config.DefaultConfigFilename
			}

			force, err := cmd.Flags().GetBool(forceFlag)
			if err != nil {
				return err
			}

			if err = config.Save(path, config.Default(), force); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Settings written", "path", path)

			return nil
		},
	}
)

// Execute runs the selenium-launcher CLI and exits with the server's exit code,
// or with 1 when the launch could not happen.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.Error(ctx, err)

		if exitCode == 0 {
			exitCode = 1
		}
	}

	_ = logger.Logger().Sync()

	os.Exit(exitCode)
}

func newFlagResolver() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	persistent := rootCmd.PersistentFlags()
	persistent.StringP(settingsFlag, "s", "",
		"path to the launcher settings file (default "+config.DefaultConfigFilename+" when present)")
	persistent.String(logLevelFlag, "", "log level: debug, info, warn or error")

	rootCmd.Flags().StringP(paramsFlag, "p", "",
		"path to the server parameters file (default "+config.DefaultParamsFilename+")")

	initCmd.Flags().Bool(forceFlag, false, "overwrite an existing settings file")

	for _, name := range []string{settingsFlag, logLevelFlag} {
		_ = flags.BindPFlag(name, persistent.Lookup(name))
	}

	_ = flags.BindPFlag(paramsFlag, rootCmd.Flags().Lookup(paramsFlag))

	rootCmd.AddCommand(downloadCmd, initCmd)
}
