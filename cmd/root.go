package cmd

import (
	"fmt"
	"os"
	"strings"

	log "github.com/jensneuse/abstractlogger"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "querygen",
	Short: "querygen generates typed Go clients for GraphQL operations",
	Long: `querygen analyses GraphQL operations against a schema and generates
dependency ordered type declarations for them.

Every selection set becomes a struct, enums, custom scalars and input objects
used by the operations are generated alongside, variables are grouped into
one arguments struct per operation.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .querygen.yaml in the working directory or $HOME)")
	rootCmd.PersistentFlags().Bool("debug", false, "enables debug logging")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".querygen")
	}

	viper.SetEnvPrefix("querygen")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("debug") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger returns a zap backed logger and a func to flush it.
func newLogger(debug bool) (log.Logger, func(), error) {
	if !debug {
		zapLogger, err := zap.NewProduction()
		if err != nil {
			return nil, nil, err
		}
		return log.NewZapLogger(zapLogger, log.InfoLevel), func() { _ = zapLogger.Sync() }, nil
	}

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, err
	}
	return log.NewZapLogger(zapLogger, log.DebugLevel), func() { _ = zapLogger.Sync() }, nil
}
