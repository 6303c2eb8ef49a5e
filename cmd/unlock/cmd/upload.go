package cmd

import (
	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/service"
	"github.com/mavericksstream/unlock/internal/ui"
	"github.com/spf13/cobra"
)

func UploadCmd() *cobra.Command {
	var form model.VideoUpload

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a video, optionally behind a paywall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.FilePath = args[0]

			a, cleanup, err := setup(cmd, ui.TerminalOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := a.UploadService.Upload(cmd.Context(), form)
			severity, message := service.UploadStatus(result, err)
			a.Terminal.Report(severity, message)
			return err
		},
	}

	cmd.Flags().StringVar(&form.Title, "title", "", "Video title")
	cmd.Flags().StringVar(&form.Description, "description", "", "Video description")
	cmd.Flags().BoolVar(&form.IsPublic, "public", false, "List the video publicly")
	cmd.Flags().BoolVar(&form.IsPaid, "paid", false, "Require payment to unlock")
	cmd.Flags().StringVar(&form.Price, "price", "", "Unlock price, e.g. 4.99")

	return cmd
}
