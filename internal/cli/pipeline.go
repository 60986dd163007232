package cli

import (
	"fmt"

	"cvpilot/internal/ai"
	"cvpilot/internal/analysis"
	"cvpilot/internal/common"
	"cvpilot/internal/session"
	"cvpilot/internal/types"

	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline [cv-file] [job-description-file]",
	Short: "Run the full guided optimization as one batch pass",
	Long: `Run the complete optimization pipeline without interaction: analyze the
job posting, score the CV, generate one optimization round per section,
accept the drafts, and merge them into an updated CV.

Sections whose positions score too low against the posting are skipped, the
way the guided flow would recommend. The output contains the merged CV, the
before and after match analyses, and the extracted job metadata.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if pipelineConfig.OutputFormat == "" {
			// Pipeline output is a composite document; only JSON renders it.
			pipelineConfig.OutputFormat = "json"
		}
		return common.ValidateOutputFormat(pipelineConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runPipeline,
}

var pipelineConfig common.CommandConfig

// pipelineResult is the composite output of a batch optimization run.
type pipelineResult struct {
	CV              types.CVDocument    `json:"cv"`
	Before          types.MatchAnalysis `json:"before"`
	After           types.MatchAnalysis `json:"after"`
	Meta            types.JobMeta       `json:"meta"`
	SkippedSections []types.SectionKey  `json:"skippedSections,omitempty"`
}

func init() {
	pipelineCmd.Flags().StringVarP(&pipelineConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	pipelineCmd.Flags().StringVar(&pipelineConfig.OutputFormat, "format", "", "Output format: json")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	fileProcessor := common.NewFileProcessor(logger)
	contents, err := fileProcessor.ReadInputs(args...)
	if err != nil {
		return err
	}

	cv, err := common.ParseCVDocument(contents[0])
	if err != nil {
		return err
	}
	jobDescription := contents[1]

	logger.Info("Starting batch optimization pipeline",
		"cv_positions", len(cv.Experience),
		"job_chars", len(jobDescription))

	// Job analysis uses the extract operation's model.
	extractAIConfig := cfg.GetExtractConfig()
	extractService, err := ai.NewService(&extractAIConfig, "extract", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	jobAnalysis, err := analysis.NewExtractor(extractService.Provider, logger).Extract(ctx, jobDescription)
	if err != nil {
		return fmt.Errorf("failed to analyze job posting: %w", err)
	}

	// The session handles scoring and per-section rewriting with the
	// optimize operation's model.
	optimizeAIConfig := cfg.GetOptimizeConfig()
	optimizeService, err := ai.NewService(&optimizeAIConfig, "optimize", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	sess, err := session.NewSession(session.SessionContext{
		CV:             cv,
		JobDescription: jobDescription,
		JobAnalysis:    jobAnalysis,
	}, optimizeService.Provider, logger)
	if err != nil {
		return err
	}

	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("failed to start optimization session: %w", err)
	}

	var skipped []types.SectionKey
	for _, key := range sess.Sections() {
		if sess.RecommendSkip(key) {
			if err := sess.Skip(key); err != nil {
				return err
			}
			skipped = append(skipped, key)
			logger.Info("Skipping low-relevance section", "section", string(key))
			continue
		}

		if _, err := sess.Open(key); err != nil {
			return err
		}
		if _, err := sess.Submit(ctx, key, ""); err != nil {
			return fmt.Errorf("failed to optimize section %q: %w", key, err)
		}
		if err := sess.Accept(key); err != nil {
			return err
		}
	}

	outcome, err := sess.Finalize(ctx)
	if err != nil {
		return fmt.Errorf("failed to finalize session: %w", err)
	}

	// Job metadata labels the result; extraction failures degrade to
	// placeholders inside the extractor, so an error here is fatal.
	metaAIConfig := cfg.GetMetaConfig()
	metaService, err := ai.NewService(&metaAIConfig, "meta", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	meta, err := analysis.NewMetaExtractor(metaService.Provider, logger).Extract(ctx, jobDescription)
	if err != nil {
		return fmt.Errorf("failed to extract job metadata: %w", err)
	}

	logger.Info("Batch optimization pipeline completed",
		"session_id", sess.ID().String(),
		"before_fit", outcome.Before.OverallFit.Score,
		"after_fit", outcome.After.OverallFit.Score,
		"skipped_sections", len(skipped))

	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(pipelineResult{
		CV:              outcome.CV,
		Before:          outcome.Before,
		After:           outcome.After,
		Meta:            meta,
		SkippedSections: skipped,
	}, pipelineConfig)
}
