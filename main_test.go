package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/agents/orchestrator"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/conversation"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

func TestChatGreetsThenRelaysEachLine(t *testing.T) {
	t.Parallel()

	orch, err := orchestrator.New(statex.NewLocalStore(), conversation.NewManager())
	require.NoError(t, err)

	var out bytes.Buffer
	in := strings.NewReader("Jane Doe\n/quit\nnever read\n")
	require.NoError(t, chat(context.Background(), orch, "biz", "555-0100", in, &out))

	require.Equal(t, 2, strings.Count(out.String(), "assistant> "))
	require.Equal(t, 2, strings.Count(out.String(), "you> "))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, name := range []string{"serve", "chat"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, cmd.Name())
	}
	require.NotNil(t, root.PersistentFlags().Lookup("env"))
}
