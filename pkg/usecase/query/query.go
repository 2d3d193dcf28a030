// Package query implements the conversational use case. A query runs
// the agent loop against a session-windowed history, with the full
// tool set available.
package query

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/adapter"
	"github.com/pcscout-dev/pcscout/pkg/agent"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/session"
	"github.com/pcscout-dev/pcscout/pkg/tool"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
)

const systemPrompt = `You are a helpful assistant that tracks prices of computer components.
You can search computer component stores for current prices, look up previously
extracted items, and search the web for background information.
Answer in the language the user writes in. Always state prices with their currency.`

// Query drives conversations. Each distinct session id gets its own
// history; the same id always continues the same conversation.
type Query struct {
	agent    *agent.Agent
	sessions *session.Manager
}

// New creates the conversational use case with the given tool set
func New(gemini adapter.Gemini, registry *tool.Registry, opts ...agent.Option) *Query {
	agentOpts := append([]agent.Option{
		agent.WithSystemPrompt(systemPrompt),
	}, opts...)

	return &Query{
		agent:    agent.New(gemini, registry, agentOpts...),
		sessions: session.NewManager(),
	}
}

// Process appends the user message to the session identified by
// sessionID and runs the agent loop to completion. An empty sessionID
// selects the shared default session. The returned result carries the
// final answer and the messages generated by this turn.
func (x *Query) Process(ctx context.Context, sessionID string, text string) (*agent.Result, error) {
	if text == "" {
		return nil, goerr.New("query text is empty")
	}

	id := model.NormalizeSessionID(sessionID)
	sess := x.sessions.Get(id)

	logger := logging.From(ctx)
	logger.Info("processing query", "session_id", id)

	result, err := x.agent.Execute(ctx, sess, text)
	if err != nil {
		return nil, goerr.Wrap(err, "query failed", goerr.V("session_id", id))
	}

	return result, nil
}

// History returns the full conversation log for the given session
func (x *Query) History(sessionID string) []model.Message {
	return x.sessions.Get(model.NormalizeSessionID(sessionID)).History()
}
