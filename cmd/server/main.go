// salesmerge-server - HTTP ingest service for the sales pipeline
package main

import (
	"context"
	"fmt"
	"os"

	"salesmerge/api"
	"salesmerge/internal/pipeline"
	"salesmerge/pkg/platform"
)

func main() {
	logger := platform.InitLogger()
	ctx := context.Background()

	profile, err := platform.LoadProfile(platform.GetEnv("SALESMERGE_PROFILE", ""))
	if err != nil {
		platform.LogFatal(logger, "profile load failed", err)
	}

	runner, closeAll, err := pipeline.Build(ctx, profile, logger)
	if err != nil {
		platform.LogFatal(logger, "pipeline wiring failed", err)
	}
	defer closeAll()

	config := api.DefaultConfig()
	config.Port = platform.GetEnvInt("SALESMERGE_PORT", config.Port)

	server := api.NewServer(runner, config, logger)
	if err := server.StartWithGracefulShutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
