package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adirahman/ceritakita-go/internal/gateway"
	"github.com/spf13/cobra"
)

var (
	flagSubmitPhoto string
	flagSubmitLat   float64
	flagSubmitLon   float64
)

var submitCmd = &cobra.Command{
	Use:   "submit <description>",
	Short: "Submit a new story with a photo",
	Long:  "Submit a new story. With a stored credential the story is posted under\nyour account; without one it is submitted as a guest.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		photo, err := os.Open(flagSubmitPhoto)
		if err != nil {
			return fmt.Errorf("failed to open photo: %w", err)
		}
		defer func() { _ = photo.Close() }()

		story := gateway.NewStory{
			Description: args[0],
			Photo:       photo,
			PhotoName:   filepath.Base(flagSubmitPhoto),
		}
		// Both coordinates or neither.
		if cmd.Flags().Changed("lat") != cmd.Flags().Changed("lon") {
			return fmt.Errorf("provide both --lat and --lon, or neither")
		}
		if cmd.Flags().Changed("lat") {
			story.Lat = &flagSubmitLat
			story.Lon = &flagSubmitLon
		}

		result, err := a.client.SubmitStory(cmd.Context(), story)
		if err != nil {
			return err
		}

		msg := result.Message
		if msg == "" {
			msg = "story submitted"
		}
		if result.AsGuest {
			msg += " (as guest)"
		}
		cmd.Println(msg)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&flagSubmitPhoto, "photo", "", "path to the story photo (required)")
	submitCmd.Flags().Float64Var(&flagSubmitLat, "lat", 0, "story latitude")
	submitCmd.Flags().Float64Var(&flagSubmitLon, "lon", 0, "story longitude")
	_ = submitCmd.MarkFlagRequired("photo")
	rootCmd.AddCommand(submitCmd)
}
