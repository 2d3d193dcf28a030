package tool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pcscout-dev/pcscout/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

type stubTool struct {
	name   string
	prompt string
	flags  []cli.Flag
}

func (x *stubTool) Flags() []cli.Flag                 { return x.flags }
func (x *stubTool) Prompt(ctx context.Context) string { return x.prompt }

func (x *stubTool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{Name: x.name, Description: "stub"},
		},
	}
}

func (x *stubTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"handled_by": x.name},
	}, nil
}

type emptyTool struct{}

func (emptyTool) Flags() []cli.Flag                 { return nil }
func (emptyTool) Prompt(ctx context.Context) string { return "" }
func (emptyTool) Spec() *genai.Tool                 { return nil }
func (emptyTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	return nil, nil
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	r := tool.New(
		&stubTool{name: "alpha"},
		&stubTool{name: "beta"},
	)

	resp, err := r.Execute(ctx, genai.FunctionCall{Name: "beta"})
	gt.NoError(t, err)
	gt.Equal(t, resp.Response["handled_by"], "beta")
}

func TestRegistryUnknownTool(t *testing.T) {
	ctx := context.Background()
	r := tool.New(&stubTool{name: "alpha"})

	_, err := r.Execute(ctx, genai.FunctionCall{Name: "gamma"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, tool.ErrToolNotFound))
}

func TestRegistrySkipsEmptySpecs(t *testing.T) {
	r := tool.New(&stubTool{name: "alpha"}, emptyTool{})
	gt.A(t, r.Specs()).Length(1)
}

func TestRegistryPrompts(t *testing.T) {
	ctx := context.Background()
	r := tool.New(
		&stubTool{name: "alpha", prompt: "use alpha for prices"},
		&stubTool{name: "beta"},
		&stubTool{name: "gamma", prompt: "use gamma for stores"},
	)

	prompts := r.Prompts(ctx)
	gt.S(t, prompts).Contains("use alpha for prices")
	gt.S(t, prompts).Contains("use gamma for stores")
}

func TestRegistryFlags(t *testing.T) {
	r := tool.New(
		&stubTool{name: "alpha", flags: []cli.Flag{&cli.StringFlag{Name: "alpha-opt"}}},
		&stubTool{name: "beta"},
	)

	gt.A(t, r.Flags()).Length(1)
}
