package rpspresenter

import (
	"fmt"
	"strings"

	"github.com/park285/rps-kakaotalk-bot/internal/session"
	"github.com/park285/rps-kakaotalk-bot/internal/util"
)

// defaultFoldLines is the line count after which a reply is folded under
// KakaoTalk's "see more".
const defaultFoldLines = 12

// Formatter turns session messages into plain KakaoTalk text. KakaoTalk has
// no inline buttons, so the selector becomes a numbered list.
type Formatter struct {
	foldLines int
}

func NewFormatter(foldLines int) *Formatter {
	if foldLines <= 0 {
		foldLines = defaultFoldLines
	}
	return &Formatter{foldLines: foldLines}
}

func (f *Formatter) Message(m session.Message) string {
	if len(m.Choices) == 0 {
		return util.FoldLongMessage(m.Text, f.foldLines)
	}
	var sb strings.Builder
	sb.WriteString(m.Text)
	for _, opt := range m.Choices {
		sb.WriteString(fmt.Sprintf("\n%s %s", keycap(opt.ID), opt.Label))
	}
	if h := strings.TrimSpace(m.Hint); h != "" {
		sb.WriteString("\n")
		sb.WriteString(h)
	}
	return sb.String()
}

func keycap(id string) string {
	switch id {
	case "1":
		return "1️⃣"
	case "2":
		return "2️⃣"
	case "3":
		return "3️⃣"
	default:
		return id + "."
	}
}
