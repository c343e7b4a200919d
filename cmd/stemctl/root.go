package main

import (
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ManuGH/stemsplit/internal/config"
	xglog "github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/version"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string

	configOnce sync.Once
	config     config.AppConfig
	configErr  error
}

func (c *commandContext) ensureConfig() (config.AppConfig, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		if path == "" {
			path = strings.TrimSpace(os.Getenv("STEMSPLIT_CONFIG"))
		}
		cfg, err := config.NewLoader(path, version.Version).Load()
		if err != nil {
			c.configErr = err
			return
		}
		if api := strings.TrimRight(strings.TrimSpace(*c.apiFlag), "/"); api != "" {
			cfg.Separator.BaseURL = api
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func newRootCommand() *cobra.Command {
	var configFlag, apiFlag, logLevel string
	ctx := &commandContext{configFlag: &configFlag, apiFlag: &apiFlag}

	rootCmd := &cobra.Command{
		Use:           "stemctl",
		Short:         "Browse stemsplit models and separate audio from the terminal",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Logs go to stderr so command output stays pipeable.
			xglog.Configure(xglog.Config{
				Level:   logLevel,
				Output:  cmd.ErrOrStderr(),
				Service: "stemctl",
				Version: version.Version,
			})
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Separation API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")

	rootCmd.AddCommand(newModelsCommand())
	rootCmd.AddCommand(newPlansCommand())
	rootCmd.AddCommand(newUploadCommand(ctx))

	return rootCmd
}
