package clock

import (
	"context"
	"time"

	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// Clock reports the current date and time. Extraction records carry
// the time of extraction, so the model asks this tool rather than
// guessing.
type Clock struct {
	now func() time.Time
}

// New creates a new clock tool
func New() *Clock {
	return &Clock{now: time.Now}
}

// Flags returns CLI flags for this tool
func (x *Clock) Flags() []cli.Flag {
	return nil
}

// Prompt returns additional information to be added to the system prompt
func (x *Clock) Prompt(ctx context.Context) string {
	return "Use the current_time tool whenever you need the current date or time, for example to timestamp extracted data."
}

// Spec returns the tool specification for Gemini function calling
func (x *Clock) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "current_time",
				Description: "Returns the current date and time in RFC 3339 format",
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *Clock) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	current := x.now().Format(time.RFC3339)
	logging.From(ctx).Debug("clock tool called", "time", current)

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"current_time": current},
	}, nil
}
