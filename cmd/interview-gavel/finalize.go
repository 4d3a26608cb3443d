package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/interview-gavel/internal/domain"
)

// finalizeInput is the file accepted by the finalize command. A bare JSON
// array of records is also accepted.
type finalizeInput struct {
	Responses []domain.AnswerRecord `json:"responses"`
	Weights   []float64             `json:"weights,omitempty"`
}

func newFinalizeCmd(opts *rootOptions) *cobra.Command {
	var file, weights string

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Compute a session score from a JSON file of answer records",
		Long: "Reads answer records from a JSON file and prints their weighted mean score. " +
			"The file holds either an array of records or an object with \"responses\" and optional \"weights\".",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readFinalizeInput(file)
			if err != nil {
				return err
			}
			if weights != "" {
				if in.Weights, err = splitWeights(weights); err != nil {
					return err
				}
			}
			score, err := opts.app.evaluator.FinalizeSession(cmd.Context(), in.Responses, in.Weights)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]int{"finalScore": score})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the JSON records file (required)")
	cmd.Flags().StringVarP(&weights, "weights", "w", "", "Comma-separated weights, one per record")
	mustMarkRequired(cmd, "file")
	return cmd
}

func readFinalizeInput(path string) (finalizeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return finalizeInput{}, fmt.Errorf("failed to read records file %s: %w", path, err)
	}

	var in finalizeInput
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &in.Responses)
	} else {
		err = json.Unmarshal(trimmed, &in)
	}
	if err != nil {
		return finalizeInput{}, fmt.Errorf("failed to parse records file: %w", err)
	}
	return in, nil
}
