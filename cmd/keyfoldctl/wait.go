package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the Keyfold server to be ready",
	Long: `Wait for the Keyfold server to be ready by polling the version endpoint.

This command will repeatedly check the server until it responds
successfully or the maximum number of retries is reached.

Example:
  keyfoldctl wait
  keyfoldctl wait --url http://localhost:3000 --retries 60`,
	Run: func(cmd *cobra.Command, args []string) {
		url, _ := cmd.Flags().GetString("url")
		retries, _ := cmd.Flags().GetInt("retries")

		if err := waitForServer(url, retries); err != nil {
			fmt.Fprintf(os.Stderr, "Server did not become ready: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("url", "http://localhost:8080", "Server base URL to check")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
}

func waitForServer(baseURL string, retries int) error {
	url := baseURL + "/v1/version"
	client := &http.Client{Timeout: 2 * time.Second}

	fmt.Println("Waiting for Keyfold to be ready...")

	for i := 0; i < retries; i++ {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode < 300 {
				fmt.Println()
				fmt.Println("Keyfold is ready!")
				return nil
			}
		}

		fmt.Print(".")
		time.Sleep(1 * time.Second)
	}

	fmt.Println()
	return fmt.Errorf("Keyfold is not ready after %d seconds", retries)
}
