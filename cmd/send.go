package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"filedrop/internal/app"
	"filedrop/internal/signalling"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send FILE [FILE...]",
	Short: "Send one or more files to a peer (creates offer)",
	Long: `Send files to a peer via WebRTC. This will:

1. Create a WebRTC peer connection with one data channel per file
2. Publish an SDP offer under a fresh session code
3. Wait for a receiver to join with that code
4. Stream every file once connected and report overall progress`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("cannot access %q: %w", path, err)
			}
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		logrus.WithField("files", len(args)).Info("starting sender")
		if err := runSenderApp(args); err != nil {
			logrus.WithError(err).Fatal("sender failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

// runSenderApp creates and runs the sender application
func runSenderApp(paths []string) error {
	ctx := createContext()

	signalingService, err := signalling.NewDefaultSignalingService(cfg)
	if err != nil {
		return fmt.Errorf("failed to create signaling service: %w", err)
	}

	opts := &app.SenderOptions{
		FilePaths: paths,
	}

	senderApp := app.NewSenderApp(cfg, signalingService)
	return senderApp.Run(ctx, opts)
}
