package cmd

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/ai"
	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/logger"
	"github.com/skillprobe/skillprobe/internal/queue"
	"github.com/skillprobe/skillprobe/internal/scoring"
	"github.com/skillprobe/skillprobe/internal/store"
)

const (
	defaultReaperIntervalMinutes = 5
	defaultStaleAfterMinutes     = 30
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued scoring jobs and reap stale runs",
	Run: func(cmd *cobra.Command, _ []string) {
		worker(cmd)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// worker is the long-running scoring consumer.
func worker(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	queueURL, err := resolveQueueURL(config)
	if err != nil {
		logger.Fatal("resolving queue url", zap.Error(err))
	}

	st, err := openStore(config, logger)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	generator, err := buildGenerator(cmd, config)
	if err != nil {
		logger.Fatal("creating ai provider", zap.Error(err))
	}
	logger = pipelineLogger(logger, config, generator)

	q, err := queue.Connect(queueURL, logger)
	if err != nil {
		logger.Fatal("connecting to queue", zap.Error(err))
	}
	defer q.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startReaper(config.Queue, st, logger)

	opts := scoring.Options{}
	if config.AI != nil {
		opts.MaxLogLength = config.AI.MaxLogLength
		opts.CacheContext = config.AI.CacheContext
	}
	if config.Assessment != nil {
		opts.Concurrency = config.Assessment.Concurrency
	}
	scorer := scoring.NewScorer(generator, logger, opts)

	logger.Info("worker started", zap.String("version", version))

	err = q.ConsumeScoringJobs(ctx, func(ctx context.Context, job queue.ScoringJob) error {
		return scoreQueuedRun(ctx, st, scorer, generator, logger, job.ResultID)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("consuming scoring jobs", zap.Error(err))
	}

	logger.Info("worker stopped")
}

// startReaper schedules the periodic pass that fails scoring runs stuck in
// processing, so candidates are not left polling a dead run.
func startReaper(cfg *QueueConfig, st *store.Store, logger *zap.Logger) {
	interval := cfg.ReaperIntervalMinutes
	if interval <= 0 {
		interval = defaultReaperIntervalMinutes
	}
	staleAfter := cfg.StaleAfterMinutes
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfterMinutes
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.Every(interval).Minutes().Do(func() {
		reaped, err := st.MarkStaleResultsFailed(time.Duration(staleAfter) * time.Minute)
		if err != nil {
			logger.Warn("reaping stale scoring runs failed", zap.Error(err))
			return
		}
		if reaped > 0 {
			logger.Info("reaped stale scoring runs", zap.Int64("count", reaped))
		}
	})
	scheduler.StartAsync()
}

// scoreQueuedRun processes one queued result end to end. The scoring
// pipeline itself never fails; errors here are load/store problems, and the
// record is marked failed so the failure is visible to whoever is polling.
func scoreQueuedRun(ctx context.Context, st *store.Store, scorer *scoring.Scorer, generator ai.Generator, logger *zap.Logger, resultID string) error {
	rec, err := st.ResultByID(resultID)
	if err != nil {
		return err
	}

	if rec.Status != store.ResultStatusQueued {
		logger.Warn("skipping scoring job in unexpected status",
			zap.String("result_id", rec.ID),
			zap.String("status", rec.Status),
		)
		return nil
	}

	rec.Status = store.ResultStatusProcessing
	if err := st.SaveResult(rec); err != nil {
		return err
	}

	asmt, responses, candidate, err := loadRunInputs(st, rec)
	if err != nil {
		markFailed(st, logger, rec)
		return err
	}

	logger.Info("scoring queued run",
		zap.String("result_id", rec.ID),
		zap.String("assessment_id", rec.AssessmentID),
		zap.Int("questions", len(asmt.Questions)),
		zap.Int("answered", len(responses)),
	)

	usage := generator.Usage()

	result := scorer.ScoreAll(ctx, asmt, candidate, responses)
	recordUsage(st, generator, store.StepScoring, usage)

	if err := rec.Complete(result); err != nil {
		markFailed(st, logger, rec)
		return err
	}
	if err := st.SaveResult(rec); err != nil {
		return err
	}

	logger.Info("queued run scored",
		zap.String("result_id", rec.ID),
		zap.Int("overall_score", result.OverallScore),
		zap.String("tier", string(result.Tier)),
	)
	return nil
}

func loadRunInputs(st *store.Store, rec *store.ResultRecord) (asmt *assessment.Assessment, responses []assessment.Response, candidate string, err error) {
	asmtRec, err := st.AssessmentByID(rec.AssessmentID)
	if err != nil {
		return nil, nil, "", err
	}
	asmt, err = asmtRec.Assessment()
	if err != nil {
		return nil, nil, "", err
	}

	respRec, err := st.ResponseByID(rec.ResponseID)
	if err != nil {
		return nil, nil, "", err
	}
	responses, err = respRec.Responses()
	if err != nil {
		return nil, nil, "", err
	}

	return asmt, responses, respRec.CandidateName, nil
}

func markFailed(st *store.Store, logger *zap.Logger, rec *store.ResultRecord) {
	rec.Status = store.ResultStatusFailed
	if err := st.SaveResult(rec); err != nil {
		logger.Error("marking run failed", zap.String("result_id", rec.ID), zap.Error(err))
	}
}
