package main

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/interview-gavel/internal/application"
)

func newInterviewCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Start, answer, finalize and inspect interviews",
	}
	cmd.AddCommand(
		newInterviewStartCmd(opts),
		newInterviewSubmitCmd(opts),
		newInterviewFinalizeCmd(opts),
		newInterviewHistoryCmd(opts),
		newInterviewShowCmd(opts),
	)
	return cmd
}

func newInterviewStartCmd(opts *rootOptions) *cobra.Command {
	var req application.StartRequest

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an interview and print its ID",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := opts.app.evaluator.StartInterview(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"interviewId": id})
		},
	}

	cmd.Flags().StringVarP(&req.UserID, "user", "u", "", "User ID (required)")
	cmd.Flags().StringVarP(&req.Role, "role", "r", "", "Interview type, e.g. HR (required)")
	cmd.Flags().StringVarP(&req.Difficulty, "difficulty", "d", "", "Difficulty, e.g. junior (required)")
	cmd.Flags().StringArrayVar(&req.Questions, "question", nil, "Planned question; repeat for each one")
	mustMarkRequired(cmd, "user", "role", "difficulty")
	return cmd
}

func newInterviewSubmitCmd(opts *rootOptions) *cobra.Command {
	var id, question, answer string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Evaluate an answer and record it against an interview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev, err := opts.app.evaluator.SubmitAnswer(cmd.Context(), id, question, answer)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ev)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Interview ID (required)")
	cmd.Flags().StringVarP(&question, "question", "q", "", "Interview question (required)")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "Candidate answer")
	mustMarkRequired(cmd, "id", "question")
	return cmd
}

func newInterviewFinalizeCmd(opts *rootOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Compute and store the final score of an interview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			score, err := opts.app.evaluator.FinalizeInterview(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]int{"finalScore": score})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Interview ID (required)")
	mustMarkRequired(cmd, "id")
	return cmd
}

func newInterviewHistoryCmd(opts *rootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a user's interviews, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := opts.app.evaluator.History(cmd.Context(), user)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID (required)")
	mustMarkRequired(cmd, "user")
	return cmd
}

func newInterviewShowCmd(opts *rootOptions) *cobra.Command {
	var user, id string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print one interview with its responses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := opts.app.evaluator.Interview(cmd.Context(), user, id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), session)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID (required)")
	cmd.Flags().StringVar(&id, "id", "", "Interview ID (required)")
	mustMarkRequired(cmd, "user", "id")
	return cmd
}
