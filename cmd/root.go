package cmd

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pdfbinder/pkg/fetch"
	"pdfbinder/pkg/merge"
	"pdfbinder/pkg/web"
)

// Execute builds the command tree and runs it.
func Execute(logger *zap.Logger) error {
	root := newRootCmd(logger)
	root.AddCommand(newVersionCmd())
	return root.Execute()
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	var (
		addr         string
		maxUploadMB  int64
		fetchTimeout time.Duration
		debug        bool
	)

	cmd := &cobra.Command{
		Use:   "pdfbinder",
		Short: "Local web UI for merging PDF files",
		Long: `pdfbinder serves a single-page UI where you drop or upload PDF files,
merge their pages into one document and download the result. Files can also
be pulled in by URL, including pages that merely link to a PDF.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := web.NewServer(web.Options{
				Engine:    merge.NewEngine(),
				Fetcher:   fetch.NewClient(fetchTimeout),
				MaxUpload: maxUploadMB << 20,
				Logger:    logger,
			})
			logger.Info("pdfbinder ui listening",
				zap.String("addr", addr),
				zap.Int64("maxUploadMB", maxUploadMB))
			return http.ListenAndServe(addr, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "http listen address (e.g. :8080)")
	cmd.Flags().Int64Var(&maxUploadMB, "max-upload-mb", 200, "upload size cap per request, in MiB")
	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 60*time.Second, "timeout for fetching remote PDFs")
	// parsed early in main to pick the logger config; registered here so
	// cobra accepts it
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose development logging")
	return cmd
}
