package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"filedrop/internal/app"
	"filedrop/internal/signalling"
)

type ReceiveFlags struct {
	DestDir string
}

var receiveFlags ReceiveFlags

// receiveCmd represents the receive command
var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Receive files from a peer (responds to offer)",
	Long: `Receive files from a peer via WebRTC. This will:

1. Create a WebRTC peer connection
2. Join the sender's session using its code
3. Save every announced file into the destination directory`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateReceiveFlags(&receiveFlags)
	},
	Run: func(cmd *cobra.Command, args []string) {
		logrus.WithField("dir", receiveFlags.DestDir).Info("starting receiver")
		if err := runReceiverApp(&receiveFlags); err != nil {
			logrus.WithError(err).Fatal("receiver failed")
		}
	},
}

// validateReceiveFlags validates the receive command flags
func validateReceiveFlags(flags *ReceiveFlags) error {
	if flags.DestDir == "" {
		return fmt.Errorf("destination directory is required")
	}
	info, err := os.Stat(flags.DestDir)
	if err != nil {
		return fmt.Errorf("cannot access destination directory %q: %w", flags.DestDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination %q is not a directory", flags.DestDir)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(receiveCmd)

	receiveCmd.Flags().StringVarP(&receiveFlags.DestDir, "dst", "d", ".", "Directory to save received files into")

	viper.BindPFlag("receive.dst", receiveCmd.Flags().Lookup("dst"))
}

// runReceiverApp creates and runs the receiver application
func runReceiverApp(flags *ReceiveFlags) error {
	ctx := createContext()

	signalingService, err := signalling.NewDefaultSignalingService(cfg)
	if err != nil {
		return fmt.Errorf("failed to create signaling service: %w", err)
	}

	opts := &app.ReceiverOptions{
		DestDir: flags.DestDir,
	}

	receiverApp := app.NewReceiverApp(cfg, signalingService)
	return receiverApp.Run(ctx, opts)
}
