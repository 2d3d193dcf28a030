package clock

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestClockReturnsRFC3339(t *testing.T) {
	fixed := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	x := &Clock{now: func() time.Time { return fixed }}

	resp, err := x.Execute(context.Background(), genai.FunctionCall{Name: "current_time"})
	gt.NoError(t, err)
	gt.Equal(t, resp.Name, "current_time")
	gt.Equal(t, resp.Response["current_time"], "2026-08-31T10:30:00Z")
}

func TestClockSpec(t *testing.T) {
	spec := New().Spec()
	gt.A(t, spec.FunctionDeclarations).Length(1)
	gt.Equal(t, spec.FunctionDeclarations[0].Name, "current_time")
}
