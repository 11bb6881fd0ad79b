package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/azure/answer-engine-bot/internal/analysis"
	"github.com/azure/answer-engine-bot/internal/config"
	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/models"
)

type analyzeOptions struct {
	brand       string
	domain      string
	competitors []string
	platform    string
	payloadFile string
	lexiconFile string
	compact     bool
}

func newRootCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <answer-file>",
		Short: "Analyze a saved answer engine response for brand visibility",
		Long: `Analyze runs the visibility pipeline on one saved answer:
- Extract citations from the text and the native payload
- Detect brand and competitor mentions and the brand's list position
- Score sentiment around each brand mention

Use "-" to read the answer from stdin.

Example:
  analyze answer.txt --brand "Acme Boards" --competitors Asana,Trello
  analyze answer.txt --brand Acme --platform perplexity --payload response.json`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.brand, "brand", "", "brand name to look for (required)")
	cmd.Flags().StringVar(&opts.domain, "domain", "", "brand website domain")
	cmd.Flags().StringSliceVar(&opts.competitors, "competitors", nil, "comma-separated competitor names")
	cmd.Flags().StringVar(&opts.platform, "platform", "unknown", "answer engine that produced the answer")
	cmd.Flags().StringVar(&opts.payloadFile, "payload", "", "JSON file with the engine's native response payload")
	cmd.Flags().StringVar(&opts.lexiconFile, "lexicon", "", "YAML lexicon extending the built-in sentiment words")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "print compact JSON")
	_ = cmd.MarkFlagRequired("brand")

	return cmd
}

func runAnalyze(cmd *cobra.Command, answerFile string, opts *analyzeOptions) error {
	content, err := readInput(cmd.InOrStdin(), answerFile)
	if err != nil {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return fmt.Errorf("answer %s is empty", answerFile)
	}

	answer := models.RawAnswer{
		Platform: opts.platform,
		Content:  string(content),
	}
	if opts.payloadFile != "" {
		data, err := os.ReadFile(opts.payloadFile)
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		if err := json.Unmarshal(data, &answer.NativePayload); err != nil {
			return fmt.Errorf("failed to parse payload %s: %w", opts.payloadFile, err)
		}
	}

	lex := lexicon.Default()
	if opts.lexiconFile != "" {
		lex, err = lexicon.Load(opts.lexiconFile)
		if err != nil {
			return err
		}
	}

	brand := models.Brand{
		ID:          config.Slug(opts.brand),
		Name:        opts.brand,
		Domain:      opts.domain,
		Competitors: opts.competitors,
	}

	result := analysis.NewPipeline(lex).Analyze(answer, brand)

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func main() {
	logrus.SetLevel(logrus.WarnLevel)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
