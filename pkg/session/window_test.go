package session_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/session"
	"google.golang.org/genai"
)

func toolResult(name string) model.Message {
	return model.NewToolMessage(name, &genai.FunctionResponse{
		Name:     name,
		Response: map[string]any{"ok": true},
	})
}

func agentText(text string) model.Message {
	return model.NewAgentMessage(genai.NewContentFromText(text, genai.RoleModel))
}

func TestWindowKeepsSystemMessage(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.Get("user-1")

	sess.Append(model.NewSystemMessage("you are a price tracker"))
	for i := 0; i < 10; i++ {
		sess.Append(model.NewHumanMessage("question"))
		sess.Append(agentText("answer"))
	}

	window := sess.Window(4)
	gt.A(t, window).Length(5)
	gt.Equal(t, window[0].Kind, model.KindSystem)
	gt.Equal(t, window[1].Kind, model.KindHuman)
}

func TestWindowRealignsToHumanMessage(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.Get("user-2")

	sess.Append(model.NewHumanMessage("first"))
	sess.Append(agentText("call tool"))
	sess.Append(toolResult("get_links_data"))
	sess.Append(agentText("here are prices"))
	sess.Append(model.NewHumanMessage("second"))
	sess.Append(agentText("reply"))

	// A window of 3 would open on the agent reply of the first
	// exchange; it must advance to the next human message
	window := sess.Window(3)
	gt.A(t, window).Length(2)
	gt.Equal(t, window[0].Kind, model.KindHuman)
	gt.Equal(t, window[0].Text(), "second")
}

func TestWindowLargerThanHistory(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.Get("user-3")

	sess.Append(model.NewHumanMessage("hello"))
	sess.Append(agentText("hi"))

	gt.A(t, sess.Window(50)).Length(2)
	gt.A(t, sess.Window(0)).Length(2)
	gt.A(t, sess.Window(-1)).Length(2)
}

func TestWindowEmptySession(t *testing.T) {
	mgr := session.NewManager()
	gt.A(t, mgr.Get("user-4").Window(10)).Length(0)
}

func TestSessionIdentityIsStable(t *testing.T) {
	mgr := session.NewManager()
	a := mgr.Get("same")
	b := mgr.Get("same")
	gt.True(t, a == b)

	mgr.Append("same", model.NewHumanMessage("hello"))
	gt.Equal(t, b.Len(), 1)
	gt.A(t, mgr.Window("same", 10)).Length(1)

	other := mgr.Get("other")
	gt.Equal(t, other.Len(), 0)
}

func TestSince(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.Get("user-5")

	sess.Append(model.NewHumanMessage("first"))
	mark := sess.Len()
	sess.Append(agentText("reply"))
	sess.Append(model.NewHumanMessage("second"))

	delta := sess.Since(mark)
	gt.A(t, delta).Length(2)
	gt.Equal(t, delta[0].Kind, model.KindAgent)

	gt.A(t, sess.Since(sess.Len())).Length(0)
}
