package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/logger"
	"github.com/skillprobe/skillprobe/internal/queue"
	"github.com/skillprobe/skillprobe/internal/scoring"
	"github.com/skillprobe/skillprobe/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score <assessment-id> <responses-file>",
	Short: "Score a candidate's answers against a saved assessment",
	Long: "Loads the assessment, reads the candidate's answers from a JSON file, and runs " +
		"the scoring pipeline. With --async the run is queued for the worker instead.",
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		score(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("candidate", "", "candidate name to attach to the result")
	scoreCmd.Flags().Bool("async", false, "enqueue the scoring run for the worker instead of scoring inline")
}

// score is the scoring command, both inline and queued.
func score(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st, err := openStore(config, logger)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	assessmentID := args[0]

	rec, err := st.AssessmentByID(assessmentID)
	if err != nil {
		logger.Fatal("loading assessment", zap.Error(err))
	}

	asmt, err := rec.Assessment()
	if err != nil {
		logger.Fatal("unpacking assessment", zap.Error(err))
	}

	responses, err := readResponses(args[1])
	if err != nil {
		logger.Fatal("reading responses file", zap.Error(err))
	}

	candidate := cmd.Flag("candidate").Value.String()

	respRec, err := store.NewResponseRecord(asmt.ID, candidate, responses)
	if err != nil {
		logger.Fatal("wrapping responses", zap.Error(err))
	}
	if err := st.SaveResponse(respRec); err != nil {
		logger.Fatal("saving responses", zap.Error(err))
	}

	logger.Info("responses saved",
		zap.String("assessment_id", asmt.ID),
		zap.String("response_id", respRec.ID),
		zap.Int("answered", len(responses)),
		zap.Int("questions", len(asmt.Questions)),
	)

	if async := cmd.Flag("async").Value.String(); async == "true" {
		enqueueScoring(ctx, config, st, logger, asmt.ID, respRec.ID)
		return
	}

	generator, err := buildGenerator(cmd, config)
	if err != nil {
		logger.Fatal("creating ai provider", zap.Error(err))
	}
	logger = pipelineLogger(logger, config, generator)

	opts := scoring.Options{}
	if config.AI != nil {
		opts.MaxLogLength = config.AI.MaxLogLength
		opts.CacheContext = config.AI.CacheContext
	}
	if config.Assessment != nil {
		opts.Concurrency = config.Assessment.Concurrency
	}

	usage := generator.Usage()

	result := scoring.NewScorer(generator, logger, opts).ScoreAll(ctx, asmt, candidate, responses)
	recordUsage(st, generator, store.StepScoring, usage)

	resultRec := store.NewQueuedResult(asmt.ID, respRec.ID)
	if err := resultRec.Complete(result); err != nil {
		logger.Fatal("wrapping result", zap.Error(err))
	}
	if err := st.SaveResult(resultRec); err != nil {
		logger.Fatal("saving result", zap.Error(err))
	}

	logger.Info("scoring complete",
		zap.String("result_id", resultRec.ID),
		zap.Int("overall_score", result.OverallScore),
		zap.String("tier", string(result.Tier)),
		zap.String("share_token", resultRec.ShareToken),
	)

	fmt.Printf("Overall: %d/100 (%s)\n%s\n", result.OverallScore, result.Tier, result.Summary)
}

// enqueueScoring creates the queued result record and hands it to the worker.
func enqueueScoring(ctx context.Context, config *Config, st *store.Store, logger *zap.Logger, assessmentID, responseID string) {
	queueURL, err := resolveQueueURL(config)
	if err != nil {
		logger.Fatal("resolving queue url", zap.Error(err))
	}

	resultRec := store.NewQueuedResult(assessmentID, responseID)
	if err := st.SaveResult(resultRec); err != nil {
		logger.Fatal("saving queued result", zap.Error(err))
	}

	q, err := queue.Connect(queueURL, logger)
	if err != nil {
		logger.Fatal("connecting to queue", zap.Error(err))
	}
	defer q.Close()

	if err := q.PublishScoringJob(ctx, queue.ScoringJob{ResultID: resultRec.ID}); err != nil {
		logger.Fatal("publishing scoring job", zap.Error(err))
	}

	fmt.Printf("Scoring queued. Result id: %s\n", resultRec.ID)
}

// readResponses loads the candidate's answer set from a JSON file holding an
// array of responses.
func readResponses(path string) ([]assessment.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read responses file: %w", err)
	}

	var responses []assessment.Response
	if err := json.Unmarshal(data, &responses); err != nil {
		return nil, fmt.Errorf("parse responses file: %w", err)
	}
	return responses, nil
}
