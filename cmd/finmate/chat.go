package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rahul/finmate/internal/observability"
	"github.com/spf13/cobra"
)

func chatCMD(cfgPath *string) *cobra.Command {
	var thread string
	var verbose, listThreads bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			a, err := newApp(ctx, *cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()
			if !verbose {
				a.events = nil
			}

			ag, err := a.chatAgent()
			if err != nil {
				return err
			}

			if listThreads {
				ids, err := ag.Store.Threads(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			interactive := observability.IsInteractive()
			if interactive {
				observability.PrintBanner("chat (type exit to quit)")
			}
			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(os.Stdin)
			for {
				if interactive {
					observability.PrintPrompt("You: ")
				}
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if q := strings.ToLower(line); q == "exit" || q == "quit" {
					fmt.Fprintln(out, "Goodbye!")
					return nil
				}

				answer, err := ag.Dialogue(ctx, thread, line)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					fmt.Fprintf(out, "Error: %v\n", err)
					continue
				}
				fmt.Fprintf(out, "Assistant: %s\n", answer)
			}
		},
	}
	cmd.Flags().StringVarP(&thread, "thread", "t", "terminal", "conversation thread id")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print agent events")
	cmd.Flags().BoolVar(&listThreads, "threads", false, "list stored conversation threads and exit")
	return cmd
}
