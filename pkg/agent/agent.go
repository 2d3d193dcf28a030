package agent

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/adapter"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/session"
	"github.com/pcscout-dev/pcscout/pkg/tool"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
	"google.golang.org/genai"
)

// ErrLoopLimitExceeded is returned when the reasoning/acting loop
// does not converge within the configured iteration cap
var ErrLoopLimitExceeded = goerr.New("loop limit exceeded")

// loopState is the explicit state of the reasoning/acting loop
type loopState int

const (
	stateAwaitingModel loopState = iota
	stateAwaitingTool
	stateDone
)

// Agent drives the reasoning/acting loop: model inference alternating
// with tool execution until a terminal answer is produced. The loop
// is sequential per session; concurrent sessions are independent.
type Agent struct {
	gemini   adapter.Gemini
	registry *tool.Registry

	systemPrompt  string
	windowSize    int
	maxIterations int
	modelTimeout  time.Duration
	toolTimeout   time.Duration
	output        *outputSchema
}

// Option is a functional option for Agent
type Option func(*Agent)

// WithSystemPrompt sets the system instruction for every inference call
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithWindowSize bounds the number of history messages sent to the
// model. Full history is always retained.
func WithWindowSize(n int) Option {
	return func(a *Agent) {
		a.windowSize = n
	}
}

// WithMaxIterations sets the hard cap on model-call cycles
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		a.maxIterations = n
	}
}

// WithModelTimeout bounds a single inference call
func WithModelTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.modelTimeout = d
	}
}

// WithToolTimeout bounds a single tool invocation
func WithToolTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.toolTimeout = d
	}
}

// New creates an agent over the given inference adapter and tool set
func New(gemini adapter.Gemini, registry *tool.Registry, opts ...Option) *Agent {
	a := &Agent{
		gemini:        gemini,
		registry:      registry,
		windowSize:    50,
		maxIterations: 16,
		modelTimeout:  5 * time.Minute,
		toolTimeout:   2 * time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the terminal outcome of one loop run
type Result struct {
	// Text is the final answer
	Text string

	// Data is the final answer as raw JSON when an output schema is
	// configured
	Data []byte

	// Messages are the history entries appended during this run,
	// starting with the triggering Human message
	Messages []model.Message
}

// Execute appends the user message to the session and runs the loop
// to a terminal answer. The session's run lock serializes loop steps
// for the same session id.
func (a *Agent) Execute(ctx context.Context, sess *session.Session, message string) (*Result, error) {
	var result *Result
	err := sess.Run(func() error {
		r, err := a.run(ctx, sess, message)
		result = r
		return err
	})
	return result, err
}

func (a *Agent) run(ctx context.Context, sess *session.Session, message string) (*Result, error) {
	logger := logging.From(ctx)
	mark := sess.Len()
	sess.Append(model.NewHumanMessage(message))

	config := &genai.GenerateContentConfig{
		Tools: a.registry.Specs(),
	}
	if prompt := a.buildSystemPrompt(ctx); prompt != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt, "")
	}

	state := stateAwaitingModel
	iterations := 0
	var result *Result
	var pending model.Message

	for state != stateDone {
		switch state {
		case stateAwaitingModel:
			if iterations >= a.maxIterations {
				return nil, goerr.Wrap(ErrLoopLimitExceeded, "loop did not converge",
					goerr.V("session_id", sess.ID()),
					goerr.V("max_iterations", a.maxIterations))
			}
			iterations++

			// Every inference reads the windowed view at the time of
			// the call, never a stale snapshot
			contents := toContents(sess.Window(a.windowSize))

			resp, err := a.generate(ctx, contents, config)
			if err != nil {
				return nil, goerr.Wrap(err, "inference failed", goerr.V("iteration", iterations))
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				return nil, goerr.New("empty response from model", goerr.V("iteration", iterations))
			}

			reply := model.NewAgentMessage(resp.Candidates[0].Content)
			sess.Append(reply)

			if reply.HasFunctionCall() {
				pending = reply
				state = stateAwaitingTool
				continue
			}

			text := reply.Text()
			if a.output != nil {
				data, err := a.output.parse(text)
				if err != nil {
					logger.Warn("model output failed schema validation, re-prompting",
						"iteration", iterations, "error", err)
					sess.Append(model.NewHumanMessage(a.output.corrective(err)))
					continue
				}
				result = &Result{Text: text, Data: data}
				state = stateDone
				continue
			}

			result = &Result{Text: text}
			state = stateDone

		case stateAwaitingTool:
			a.executeTools(ctx, sess, pending)
			state = stateAwaitingModel
		}
	}

	result.Messages = sess.Since(mark)
	return result, nil
}

// executeTools runs each requested tool call synchronously in request
// order so ToolResult messages are appended deterministically. A tool
// failure is folded into the result, never raised; the model decides
// how to recover.
func (a *Agent) executeTools(ctx context.Context, sess *session.Session, reply model.Message) {
	logger := logging.From(ctx)

	for _, part := range reply.Content.Parts {
		if part.FunctionCall == nil {
			continue
		}
		fc := *part.FunctionCall

		resp, err := a.invokeTool(ctx, fc)
		if err != nil {
			logger.Warn("tool execution failed", "tool", fc.Name, "error", err)
			resp = &genai.FunctionResponse{
				Name:     fc.Name,
				Response: map[string]any{"error": err.Error()},
			}
		}

		sess.Append(model.NewToolMessage(fc.Name, resp))
	}
}

func (a *Agent) invokeTool(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}
	return a.registry.Execute(ctx, fc)
}

func (a *Agent) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if a.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.modelTimeout)
		defer cancel()
	}
	return a.gemini.GenerateContent(ctx, contents, config)
}

func (a *Agent) buildSystemPrompt(ctx context.Context) string {
	prompt := a.systemPrompt
	if toolPrompts := a.registry.Prompts(ctx); toolPrompts != "" {
		if prompt != "" {
			prompt += "\n\n"
		}
		prompt += toolPrompts
	}
	if a.output != nil {
		if prompt != "" {
			prompt += "\n\n"
		}
		prompt += a.output.prompt()
	}
	return prompt
}

// toContents maps the windowed view to model inputs. System messages
// are delivered via the system instruction, not the content list.
func toContents(window []model.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(window))
	for _, msg := range window {
		if msg.Kind == model.KindSystem || msg.Content == nil {
			continue
		}
		contents = append(contents, msg.Content)
	}
	return contents
}
