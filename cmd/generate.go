package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/compiler"
	"github.com/skillprobe/skillprobe/internal/logger"
	"github.com/skillprobe/skillprobe/internal/research"
	"github.com/skillprobe/skillprobe/internal/store"
)

const (
	PromptSave             = "Save"
	PromptDiscard          = "Discard"
	PromptShowQuestionPlan = "Show question plan"
	PromptAssessmentToFile = "Dump assessment to file"
)

var errExit = errors.New("exit requested")

var reviewPrompt = promptui.Select{
	Label: "Assessment compiled. What next?",
	Items: []string{PromptSave, PromptDiscard, PromptShowQuestionPlan, PromptAssessmentToFile},
}

var generateCmd = &cobra.Command{
	Use:   "generate [job-posting-file]",
	Short: "Compile a scenario assessment from a job posting",
	Long: "Reads a free-text job posting from the given file (or stdin), researches the " +
		"employer and the role, and compiles a weighted scenario assessment.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		generate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("company", "c", "", "company name hint when the posting does not state it clearly")
	generateCmd.Flags().IntP("questions", "n", 0, "number of questions to generate (default from config)")
	generateCmd.Flags().String("difficulty", "", "difficulty calibration (default from config)")
	generateCmd.Flags().BoolP("auto-approve", "y", false, "save the compiled assessment without the review prompt")
}

// generate is the assessment-compilation command.
func generate(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting skillprobe", zap.String("version", version))

	jobText, err := readJobText(args)
	if err != nil {
		logger.Fatal("reading job posting", zap.Error(err))
	}

	generator, err := buildGenerator(cmd, config)
	if err != nil {
		logger.Fatal("creating ai provider", zap.Error(err))
	}
	logger = pipelineLogger(logger, config, generator)

	st, err := openStore(config, logger)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	maxLogLen := 0
	if config.AI != nil {
		maxLogLen = config.AI.MaxLogLength
	}

	gatherer := research.NewGatherer(generator, logger, maxLogLen)

	usage := generator.Usage()

	findings, err := gatherer.GatherContext(ctx, jobText, cmd.Flag("company").Value.String())
	if err != nil {
		logger.Fatal("gathering company and role context", zap.Error(err))
	}
	usage = recordUsage(st, generator, store.StepResearch, usage)

	logger.Info("context gathered",
		zap.String("company", findings.Company.Name),
		zap.String("role", findings.Role.Title),
		zap.String("category", string(findings.Role.Category)),
		zap.Bool("from_known_employers", findings.FromCache),
	)

	req := compiler.Request{
		Company:    findings.Company,
		Role:       findings.Role,
		Difficulty: cmd.Flag("difficulty").Value.String(),
	}
	if config.Assessment != nil {
		req.QuestionCount = config.Assessment.QuestionCount
		req.FocusAreas = config.Assessment.FocusAreas
		if req.Difficulty == "" {
			req.Difficulty = config.Assessment.Difficulty
		}
	}
	if n, err := cmd.Flags().GetInt("questions"); err == nil && n > 0 {
		req.QuestionCount = n
	}

	asmt, err := compiler.NewCompiler(generator, logger, maxLogLen).Compile(ctx, req)
	if err != nil {
		logger.Fatal("compiling assessment", zap.Error(err))
	}
	recordUsage(st, generator, store.StepGeneration, usage)

	logger.Info("assessment compiled",
		zap.String("assessment_id", asmt.ID),
		zap.String("title", asmt.Title),
		zap.Int("questions", len(asmt.Questions)),
		zap.Int("estimated_minutes", asmt.EstimatedMinutes),
		zap.Strings("skills_covered", assessment.SortedSkills(asmt.SkillsCovered)),
	)

	if autoApprove := cmd.Flag("auto-approve").Value.String(); autoApprove == "true" {
		if err := saveAssessment(st, logger, asmt); err != nil {
			logger.Fatal("saving assessment", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := reviewPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleReviewAction(action, st, logger, asmt); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleReviewAction(action string, st *store.Store, logger *zap.Logger, asmt *assessment.Assessment) error {
	switch action {
	case PromptSave:
		if err := saveAssessment(st, logger, asmt); err != nil {
			return err
		}
		return errExit
	case PromptDiscard:
		logger.Info("exiting", zap.String("reason", "assessment discarded"))
		return errExit
	case PromptShowQuestionPlan:
		for i, q := range asmt.Questions {
			fmt.Printf("%2d. [%s] %s (%d min, skills: %s)\n",
				i+1, q.Archetype, q.Context.Situation, q.TimeGuidanceMin, strings.Join(q.Skills, ", "))
		}
		return nil
	case PromptAssessmentToFile:
		filename, err := asmt.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump assessment to file: %w", err)
		}
		logger.Info("dumping assessment to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func saveAssessment(st *store.Store, logger *zap.Logger, asmt *assessment.Assessment) error {
	rec, err := store.NewAssessmentRecord(asmt)
	if err != nil {
		return err
	}
	if err := st.SaveAssessment(rec); err != nil {
		return err
	}

	logger.Info("assessment saved", zap.String("assessment_id", asmt.ID))
	return nil
}

// readJobText reads the posting from the file argument, or stdin when no
// argument was given.
func readJobText(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read job posting file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read job posting from stdin: %w", err)
	}
	return string(data), nil
}
