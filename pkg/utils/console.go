package utils

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// AskForCode prompts on stdin until a valid session code is entered or the
// context is cancelled.
func AskForCode(ctx context.Context) (string, error) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		inputCh := make(chan string, 1)

		fmt.Printf("Enter code from sender: ")
		go func() {
			if scanner.Scan() {
				inputCh <- strings.TrimSpace(scanner.Text())
			}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case code := <-inputCh:
			if IsValidCode(code) {
				return code, nil
			}
			fmt.Printf("Invalid code. Please enter again.\n")
		}
	}
}
