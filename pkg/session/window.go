package session

import (
	"github.com/pcscout-dev/pcscout/pkg/model"
)

// Window returns the last max messages of the history, realigned so
// the view starts on a Human message: a window that would open
// mid-exchange is advanced to the next Human entry so the model
// always sees a complete turn. A System message, if present, is
// always retained at the front regardless of window size. max <= 0 or
// max >= len returns the full history.
func (s *Session) Window(max int) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var system *model.Message
	body := make([]model.Message, 0, len(s.messages))
	for i := range s.messages {
		if s.messages[i].Kind == model.KindSystem && system == nil {
			system = &s.messages[i]
			continue
		}
		body = append(body, s.messages[i])
	}

	if max > 0 && max < len(body) {
		body = body[len(body)-max:]
		// Realign: never open the window mid-exchange
		for len(body) > 0 && body[0].Kind != model.KindHuman {
			body = body[1:]
		}
	}

	out := make([]model.Message, 0, len(body)+1)
	if system != nil {
		out = append(out, *system)
	}
	out = append(out, body...)
	return out
}
