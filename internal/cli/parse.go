package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gokatarajesh/quiz-engine/internal/quiz"
)

type parseReport struct {
	Questions []quiz.Question `json:"questions" yaml:"questions"`
	Total     int             `json:"total" yaml:"total"`
	Possible  int             `json:"possible_points" yaml:"possible_points"`
}

// NewParseCmd validates quiz text and prints the recognised questions.
func NewParseCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse quiz text (use - for stdin) and print the recognised questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("read quiz: %w", err)
			}
			questions := quiz.Parse(raw)
			if len(questions) == 0 {
				return quiz.ErrParseEmpty
			}
			return writeReport(cmd.OutOrStdout(), format, questions)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func writeReport(out io.Writer, format string, questions []quiz.Question) error {
	report := parseReport{Questions: questions, Total: len(questions)}
	for _, q := range questions {
		report.Possible += q.Points
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
