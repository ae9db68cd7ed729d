package util

import "strings"

const (
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "\u200b"
)

// ApplyKakaoSeeMorePadding puts instruction on top and pushes text below
// KakaoTalk's "see more" fold with zero-width spaces.
func ApplyKakaoSeeMorePadding(text, instruction string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	instruction = strings.TrimSpace(instruction)

	var b strings.Builder
	b.Grow(len(instruction) + KakaoSeeMorePadding*len(KakaoZeroWidthSpace) + len(text) + 1)
	b.WriteString(instruction)
	b.WriteString(strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding))
	if !strings.HasPrefix(text, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	return b.String()
}

// FoldLongMessage leaves short messages alone. Longer ones use their first
// line as the visible header and fold the rest.
func FoldLongMessage(text string, maxLines int) string {
	if maxLines <= 0 || strings.Count(text, "\n")+1 <= maxLines {
		return text
	}
	header, body, _ := strings.Cut(text, "\n")
	return ApplyKakaoSeeMorePadding(body, header)
}
