// Package parser decodes raw model output in the OpenAI Harmony format.
// It scans for sentinel tokens like <|start|>, <|channel|>, <|message|>
// and <|end|> and extracts the ordered message segments between them.
package parser

import "strings"

// Harmony sentinel literals as they appear in decoded model output.
const (
	SentinelStart     = "<|start|>"
	SentinelChannel   = "<|channel|>"
	SentinelConstrain = "<|constrain|>"
	SentinelMessage   = "<|message|>"
	SentinelEnd       = "<|end|>"
	SentinelReturn    = "<|return|>"
)

// Segment is one sentinel-delimited message recovered from model output.
// Channel is nil when the header carried no channel sentinel; a header
// with a channel sentinel but no channel text yields a pointer to the
// empty string. The distinction matters because reply selection compares
// channels by equality, not truthiness. Recipient is set only when the
// header carries a to= annotation.
type Segment struct {
	Role      string  `json:"role"`
	Channel   *string `json:"channel,omitempty"`
	Recipient *string `json:"recipient,omitempty"`
	Content   string  `json:"content"`
}

// ChannelIs reports whether the segment carries a channel equal to name.
func (s *Segment) ChannelIs(name string) bool {
	return s.Channel != nil && *s.Channel == name
}

// HasRecipient reports whether the segment addresses a specific tool.
func (s *Segment) HasRecipient() bool {
	return s.Recipient != nil && *s.Recipient != ""
}

// Parse scans text left to right and extracts every complete Harmony
// segment in order. It is total: any input yields a (possibly empty)
// slice and never an error. A start sentinel without a following
// message sentinel, or content without a closing <|end|> or <|return|>,
// is a truncated tail and is silently dropped. Content is taken
// verbatim between the sentinels; callers trim at use sites.
func Parse(text string) []Segment {
	var segments []Segment
	cursor := 0
	for {
		start := strings.Index(text[cursor:], SentinelStart)
		if start == -1 {
			return segments
		}
		headerFrom := cursor + start + len(SentinelStart)

		msg := strings.Index(text[headerFrom:], SentinelMessage)
		if msg == -1 {
			// Dangling header, nothing more to emit.
			return segments
		}
		header := text[headerFrom : headerFrom+msg]
		contentFrom := headerFrom + msg + len(SentinelMessage)

		closeAt, closeLen := nearestClose(text[contentFrom:])
		if closeAt == -1 {
			// Unterminated content, drop it.
			return segments
		}

		seg := parseHeader(header)
		seg.Content = text[contentFrom : contentFrom+closeAt]
		segments = append(segments, seg)
		cursor = contentFrom + closeAt + closeLen
	}
}

// nearestClose locates whichever of <|end|> or <|return|> comes first
// in s. It returns (-1, 0) when neither is present.
func nearestClose(s string) (idx, width int) {
	end := strings.Index(s, SentinelEnd)
	ret := strings.Index(s, SentinelReturn)
	switch {
	case end == -1 && ret == -1:
		return -1, 0
	case ret == -1 || (end != -1 && end < ret):
		return end, len(SentinelEnd)
	default:
		return ret, len(SentinelReturn)
	}
}

// parseHeader applies the Harmony header grammar to the text between
// <|start|> and <|message|>. Without a channel sentinel the whole
// header is the role. With one, the remainder is truncated at any
// <|constrain|> annotation (constraints are not modeled), then split
// on the first space: the left part is the channel and the right part,
// when prefixed with to=, names the recipient.
func parseHeader(header string) Segment {
	chIdx := strings.Index(header, SentinelChannel)
	if chIdx == -1 {
		return Segment{Role: strings.TrimSpace(header)}
	}

	seg := Segment{Role: strings.TrimSpace(header[:chIdx])}
	rest := header[chIdx+len(SentinelChannel):]
	if con := strings.Index(rest, SentinelConstrain); con != -1 {
		rest = rest[:con]
	}

	channel := rest
	if sp := strings.IndexByte(rest, ' '); sp != -1 {
		channel = rest[:sp]
		if after := strings.TrimSpace(rest[sp+1:]); strings.HasPrefix(after, "to=") {
			recipient := strings.TrimSpace(after[len("to="):])
			seg.Recipient = &recipient
		}
	}
	seg.Channel = &channel
	return seg
}
