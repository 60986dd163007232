package cli

import (
	"context"
	"fmt"

	"cvpilot/internal/ai"
	"cvpilot/internal/analysis"
	"cvpilot/internal/common"
	"cvpilot/internal/types"

	"github.com/spf13/cobra"
)

var positionCmd = &cobra.Command{
	Use:   "position [cv-file] [job-description-file]",
	Short: "Score a single experience entry against a job posting",
	Long: `Score one experience entry from the CV against a job posting in
isolation: the analysis sees only the selected position, never the rest of
the CV. Select the entry with --index (0 is the most recent position).
A score below 2 marks the position as a candidate for skipping during
optimization.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if positionConfig.OutputFormat == "" {
			positionConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(positionConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runPosition,
}

var positionConfig common.CommandConfig
var positionIndex int

type positionInput struct {
	position       types.Position
	jobDescription string
}

func init() {
	positionCmd.Flags().StringVarP(&positionConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	positionCmd.Flags().StringVar(&positionConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	positionCmd.Flags().IntVar(&positionIndex, "index", 0, "Index of the experience entry to score")
}

func runPosition(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	positionAIConfig := cfg.GetPositionConfig()
	aiService, err := ai.NewService(&positionAIConfig, "position", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	positionAnalyzer := analysis.NewPositionAnalyzer(aiService.Provider, logger)

	createInput := func(contents []string) (positionInput, error) {
		if len(contents) != 2 {
			return positionInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		cv, err := common.ParseCVDocument(contents[0])
		if err != nil {
			return positionInput{}, err
		}
		if positionIndex < 0 || positionIndex >= len(cv.Experience) {
			return positionInput{}, fmt.Errorf("position index %d out of range (CV has %d positions)", positionIndex, len(cv.Experience))
		}
		return positionInput{position: cv.Experience[positionIndex], jobDescription: contents[1]}, nil
	}

	logDetails := func(input positionInput, cfg common.CommandConfig) {
		logger.Info("Starting position analysis",
			"company", input.position.Company,
			"title", input.position.Title,
			"job_chars", len(input.jobDescription),
			"output_format", cfg.OutputFormat)
	}

	positionOperation := func(ctx context.Context, input positionInput) (types.PositionAnalysis, *ai.TokenUsage, error) {
		result, err := positionAnalyzer.Analyze(ctx, input.position, input.jobDescription, false)
		return result, nil, err
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		positionConfig,
		args,
		createInput,
		positionOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze position: %w", err)
	}
	logger.Info("Position analysis completed successfully")
	return nil
}
