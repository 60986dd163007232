package cli

import (
	"context"
	"fmt"

	"cvpilot/internal/ai"
	"cvpilot/internal/common"
	"cvpilot/internal/optimize"
	"cvpilot/internal/types"

	"github.com/spf13/cobra"
)

var coverLetterCmd = &cobra.Command{
	Use:   "cover-letter [cv-file] [job-description-file]",
	Short: "Draft a cover letter for a CV and job posting",
	Long: `Draft a cover letter for the CV applying to the job posting. The letter
draws only on facts present in the CV and is written in the language of the
job description. The output lists the points the letter emphasizes and the
job description keywords it works in, so the claims can be checked before
sending.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if coverLetterConfig.OutputFormat == "" {
			coverLetterConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(coverLetterConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runCoverLetter,
}

var coverLetterConfig common.CommandConfig

type coverLetterInput struct {
	cv             types.CVDocument
	jobDescription string
}

func init() {
	coverLetterCmd.Flags().StringVarP(&coverLetterConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	coverLetterCmd.Flags().StringVar(&coverLetterConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = coverLetterCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runCoverLetter(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	coverLetterAIConfig := cfg.GetCoverLetterConfig()
	aiService, err := ai.NewService(&coverLetterAIConfig, "coverLetter", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	letterWriter := optimize.NewLetterWriter(aiService.Provider, logger)

	createInput := func(contents []string) (coverLetterInput, error) {
		if len(contents) != 2 {
			return coverLetterInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		cv, err := common.ParseCVDocument(contents[0])
		if err != nil {
			return coverLetterInput{}, err
		}
		return coverLetterInput{cv: cv, jobDescription: contents[1]}, nil
	}

	logDetails := func(input coverLetterInput, cfg common.CommandConfig) {
		logger.Info("Starting cover letter generation",
			"cv_positions", len(input.cv.Experience),
			"job_chars", len(input.jobDescription),
			"output_format", cfg.OutputFormat)
	}

	letterOperation := func(ctx context.Context, input coverLetterInput) (types.CoverLetter, *ai.TokenUsage, error) {
		result, err := letterWriter.Write(ctx, input.cv, input.jobDescription)
		return result, nil, err
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		coverLetterConfig,
		args,
		createInput,
		letterOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to generate cover letter: %w", err)
	}
	logger.Info("Cover letter generation completed successfully")
	return nil
}
