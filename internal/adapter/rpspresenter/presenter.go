package rpspresenter

import (
	"strings"

	"github.com/park285/rps-kakaotalk-bot/internal/session"
)

// Presenter delivers controller replies to a room without coupling to the
// transport.
type Presenter struct {
	sendMessage func(room, message string) error
	formatter   *Formatter
}

func NewPresenter(sendMessage func(room, message string) error, formatter *Formatter) *Presenter {
	if formatter == nil {
		formatter = NewFormatter(0)
	}
	return &Presenter{sendMessage: sendMessage, formatter: formatter}
}

// Reply sends every message in order and stops at the first send error.
func (p *Presenter) Reply(room string, reply *session.Reply) error {
	if p == nil || p.sendMessage == nil || reply == nil {
		return nil
	}
	for _, m := range reply.Messages {
		text := p.formatter.Message(m)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := p.sendMessage(room, text); err != nil {
			return err
		}
	}
	return nil
}
