package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"filedrop/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "filedrop",
	Short: "filedrop - push files to a peer over WebRTC data channels",
	Long: `filedrop transfers one or more files directly to a remote peer.

Each file travels on its own ordered WebRTC data channel; a short session
code exchanged out of band is all the receiver needs to join.

Usage:
  Send files:     filedrop send FILE [FILE...]
  Receive files:  filedrop receive --dst /path/to/dir`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()

		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}

		cfg = config.NewDefaultConfig()
		applyConfigOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			logrus.WithError(err).Fatal("invalid configuration")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.filedrop.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("FILEDROP")
	viper.AutomaticEnv()
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			logrus.WithError(err).Warn("could not find home directory")
			return
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".filedrop")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Info("using config file")
	}
}

// applyConfigOverrides layers viper-provided values over the defaults.
func applyConfigOverrides(cfg *config.Config) {
	if v := viper.GetString("firebase.project_id"); v != "" {
		cfg.Firebase.ProjectID = v
	}
	if v := viper.GetString("firebase.database_url"); v != "" {
		cfg.Firebase.DatabaseURL = v
	}
	if v := viper.GetString("firebase.credentials_path"); v != "" {
		cfg.Firebase.CredentialsPath = v
	}
	if v := viper.GetInt64("webrtc.max_message_size"); v != 0 {
		cfg.WebRTC.MaxMessageSize = v
	}
	if v := viper.GetUint64("webrtc.buffered_amount_low_threshold"); v != 0 {
		cfg.WebRTC.BufferedAmountLowThreshold = v
	}
	if v := viper.GetUint64("webrtc.max_buffered_amount"); v != 0 {
		cfg.WebRTC.MaxBufferedAmount = v
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// createContext creates a context that cancels on interrupt signals
func createContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logrus.Info("received interrupt signal, shutting down...")
		cancel()
	}()

	return ctx
}
