package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ultracrew",
	Short: "UltraCrew, the coach and runner pairing platform",
	Long:  "UltraCrew connects ultramarathon runners with coaches: one account per person with a switchable role, invitation links for bringing athletes on board, coach/runner relationships with private notes, and an activity feed of everything that happens to a pairing.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/ultracrew.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
