package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var question, answer, answerFile string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a single answer",
		Long:  "Scores one answer to one question and prints the evaluation: score, feedback, confidence, suggested answer, topic, strengths and improvements.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if answerFile != "" {
				data, err := os.ReadFile(answerFile)
				if err != nil {
					return fmt.Errorf("failed to read answer file %s: %w", answerFile, err)
				}
				answer = string(data)
			}
			ev, err := opts.app.evaluator.EvaluateAnswer(cmd.Context(), question, answer)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ev)
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "Interview question (required)")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "Candidate answer")
	cmd.Flags().StringVar(&answerFile, "answer-file", "", "Read the answer from a file instead of --answer")
	cmd.MarkFlagsMutuallyExclusive("answer", "answer-file")
	mustMarkRequired(cmd, "question")
	return cmd
}

func newQuestionsCmd(opts *rootOptions) *cobra.Command {
	var role, level string

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Generate interview questions for a role and level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			qs, err := opts.app.evaluator.Questions(cmd.Context(), role, level)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"questions": qs})
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", "", "Job role, e.g. \"Software Engineer\" (required)")
	cmd.Flags().StringVarP(&level, "level", "l", "", "Experience level, e.g. junior (required)")
	mustMarkRequired(cmd, "role", "level")
	return cmd
}

// splitWeights parses a comma-separated weight list such as "1,2,0.5".
func splitWeights(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		out = append(out, w)
	}
	return out, nil
}
