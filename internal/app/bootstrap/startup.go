// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	filesfeature "filedepot/internal/app/features/files"
	jobstore "filedepot/internal/app/store/jobs"
	nodestore "filedepot/internal/app/store/nodes"
	"filedepot/internal/app/system/jobrunner"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// jobRunner is the process-wide thumbnail job runner, created in
// Startup and stopped in Shutdown. BuildHandler hands it to the files
// feature so image uploads can enqueue work.
var jobRunner *jobrunner.Runner

// Startup runs once after DB connections and schema/index setup are
// complete, but before the HTTP handler is built and requests are
// served.
//
// Returning a non-nil error will abort startup and prevent the server
// from starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	runnerCfg := jobrunner.DefaultConfig()
	if appCfg.ThumbWorkers > 0 {
		runnerCfg.WorkerCount = appCfg.ThumbWorkers
	}
	if appCfg.ThumbPollInterval > 0 {
		runnerCfg.PollInterval = appCfg.ThumbPollInterval
	}
	if appCfg.ThumbMaxAttempts > 0 {
		runnerCfg.MaxAttempts = appCfg.ThumbMaxAttempts
	}
	if appCfg.ThumbRetryDelay > 0 {
		runnerCfg.RetryDelay = appCfg.ThumbRetryDelay
	}

	jobRunner = jobrunner.New(jobstore.New(deps.MongoDatabase), logger, runnerCfg)
	jobRunner.AddQueue(filesfeature.ThumbnailQueue)
	jobRunner.Register(filesfeature.JobTypeThumbnails,
		filesfeature.ThumbnailHandler(nodestore.New(deps.MongoDatabase), deps.Blobs, logger))

	if err := jobRunner.Start(); err != nil {
		logger.Error("failed to start job runner", zap.Error(err))
		return err
	}

	return nil
}
