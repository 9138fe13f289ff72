package parser

import "strings"

// Channel names used by gpt-oss models.
const (
	ChannelAnalysis   = "analysis"
	ChannelFinal      = "final"
	ChannelCommentary = "commentary"
)

// SelectReply returns the user-facing reply for a completion: the
// content of the last final-channel segment, trimmed of surrounding
// whitespace. When no final segment exists the whole raw text is
// returned trimmed, so a model that ignores the tag protocol still
// produces an answer.
func SelectReply(segments []Segment, raw string) string {
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i].ChannelIs(ChannelFinal) {
			return strings.TrimSpace(segments[i].Content)
		}
	}
	return strings.TrimSpace(raw)
}

// AnalysisTexts returns the contents of every analysis-channel segment
// in order. Analysis is never used as the reply; callers surface it
// only when the show-analysis flag is on.
func AnalysisTexts(segments []Segment) []string {
	var texts []string
	for _, seg := range segments {
		if seg.ChannelIs(ChannelAnalysis) {
			texts = append(texts, seg.Content)
		}
	}
	return texts
}
