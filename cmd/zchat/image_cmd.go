package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zchat/internal/logger"
)

var imageOut string

var imageCmd = &cobra.Command{
	Use:   "image <prompt>",
	Short: "Generate an image from a prompt",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		a := mustApp()
		prompt := strings.Join(args, " ")

		encoded, err := a.api.GenerateImage(context.Background(), prompt)
		if err != nil {
			logger.Fatal("image generation failed", "error", err)
		}

		if imageOut == "" {
			fmt.Println("data:image/png;base64," + encoded)
			return
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			logger.Fatal("backend returned an invalid image payload", "error", err)
		}
		if err := os.WriteFile(imageOut, raw, 0644); err != nil {
			logger.Fatal("failed to write image", "path", imageOut, "error", err)
		}
		fmt.Printf("Saved to %s\n", imageOut)
	},
}

func init() {
	imageCmd.Flags().StringVar(&imageOut, "out", "", "Write the decoded PNG to a file")
	rootCmd.AddCommand(imageCmd)
}
