package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func askCMD(cfgPath *string) *cobra.Command {
	var showPlan bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question with the planner",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()
			a.events = nil

			state, err := a.executor().Solve(ctx, uuid.NewString(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if showPlan {
				if state.PlanErr != nil {
					fmt.Fprintf(out, "plan error: %v\n", state.PlanErr)
				}
				for _, r := range state.StepResults {
					fmt.Fprintf(out, "[%d] %s(%q) -> %s\n", r.Index, r.Action, r.Input, r.Result)
				}
				if state.Retries > 0 {
					fmt.Fprintf(out, "replans: %d\n", state.Retries)
				}
			}
			fmt.Fprintln(out, state.FinalAnswer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPlan, "show-plan", false, "print executed steps before the answer")
	return cmd
}
