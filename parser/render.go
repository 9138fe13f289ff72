package parser

import "strings"

// RenderSegment writes one segment in the Harmony wire grammar. A
// recipient is only rendered when a channel is present, matching the
// header grammar the scanner accepts.
func RenderSegment(sb *strings.Builder, seg Segment) {
	sb.WriteString(SentinelStart)
	sb.WriteString(seg.Role)
	if seg.Channel != nil {
		sb.WriteString(SentinelChannel)
		sb.WriteString(*seg.Channel)
		if seg.Recipient != nil {
			sb.WriteString(" to=")
			sb.WriteString(*seg.Recipient)
		}
	}
	sb.WriteString(SentinelMessage)
	sb.WriteString(seg.Content)
	sb.WriteString(SentinelEnd)
}

// RenderSegments renders segments back into the wire grammar. For field
// values free of sentinel substrings it is the inverse of Parse.
func RenderSegments(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		RenderSegment(&sb, seg)
	}
	return sb.String()
}
