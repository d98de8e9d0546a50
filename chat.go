package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/agents/orchestrator"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/transport"
)

func newChatCmd() *cobra.Command {
	var businessID, phone string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the booking assistant from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), transport.Config{})
			if err != nil {
				return err
			}
			defer a.close()
			return chat(cmd.Context(), a.orch, businessID, phone, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&businessID, "business", "default_business", "business id to book for")
	cmd.Flags().StringVar(&phone, "phone", "", "caller phone number")
	return cmd
}

func chat(ctx context.Context, orch *orchestrator.Orchestrator, businessID, phone string, in io.Reader, out io.Writer) error {
	req := orchestrator.Request{
		BusinessID:  businessID,
		CallerPhone: phone,
		Channel:     "cli",
	}

	resp, err := orch.HandleInput(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "assistant> %s\n", resp.Reply)
	req.SessionID = resp.SessionID

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(line), "/quit") {
			break
		}

		req.Utterance = line
		resp, err = orch.HandleInput(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "assistant> %s\n", resp.Reply)
		if resp.Stage.Terminal() {
			fmt.Fprintf(out, "[session %s ended: %s]\n", resp.SessionID, resp.Status)
			break
		}
	}
	return scanner.Err()
}
