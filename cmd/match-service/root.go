package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flosslyDevs/ToothMatch/internal/config"
)

const app = "match-service"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "ToothMatch match and interview service",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper(), cfgFile)
}
