package cli

import (
	"context"
	"os"

	"classroom/internal/config"
	"classroom/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	v         = viper.New()
	cfg       *config.Config
	appLogger *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:               "classroom",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Classroom web application",
	Long:              `Accounts, login sessions and classrooms that users create and join by code.`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		appLogger = logger.Get(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./configs/config.yml)")
}
