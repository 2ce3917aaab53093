package main

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"pdfbinder/cmd"
	"pdfbinder/pkg/version"
)

func main() {
	cfg := zap.NewProductionConfig()
	if hasDebugFlag(os.Args[1:]) {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build(zap.Fields(
		zap.String("appName", "pdfbinder"),
		zap.String("appVersion", version.Version),
	))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := cmd.Execute(logger); err != nil {
		logger.Fatal("pdfbinder execution failed", zap.Error(err))
	}

	// Sync fails with EINVAL when stderr is not syncable (e.g. piped), so
	// only attempt it against a terminal or a regular file.
	if term.IsTerminal(int(os.Stderr.Fd())) || isRegularFile(os.Stderr) {
		if syncErr := logger.Sync(); syncErr != nil {
			if !strings.Contains(strings.ToLower(syncErr.Error()), "invalid argument") {
				log.Printf("Logger sync failed: %v", syncErr)
			}
		}
	}
}

// hasDebugFlag pre-scans the arguments before cobra parses them, since the
// logger must exist before the command tree runs.
func hasDebugFlag(args []string) bool {
	for _, a := range args {
		if a == "--debug" || a == "--debug=true" {
			return true
		}
	}
	return false
}

func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
