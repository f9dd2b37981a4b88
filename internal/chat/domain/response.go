package domain

import "bytes"

// Binding maps one reply position to a session field. An empty Name means
// the position is skipped.
type Binding struct {
	Position int
	Name     string
}

// replyTable is the positional layout of a webservicemin reply. Several
// entries (lineChoices, typingData, ...) are undocumented upstream and are
// carried as opaque values.
var replyTable = []Binding{
	{0, ""},
	{1, FieldSessionID},
	{2, "logurl"},
	{3, "vText8"},
	{4, "vText7"},
	{5, "vText6"},
	{6, "vText5"},
	{7, "vText4"},
	{8, "vText3"},
	{9, "vText2"},
	{10, "prevref"},
	{11, ""},
	{12, "emotionalhistory"},
	{13, "ttsLocMP3"},
	{14, "ttsLocTXT"},
	{15, "ttsLocTXT3"},
	{16, FieldReplyText},
	{17, "lineRef"},
	{18, "lineURL"},
	{19, "linePOST"},
	{20, "lineChoices"},
	{21, "lineChoicesAbbrev"},
	{22, "typingData"},
	{23, "divert"},
}

// ReplyTable returns a copy of the positional layout.
func ReplyTable() []Binding {
	out := make([]Binding, len(replyTable))
	copy(out, replyTable)
	return out
}

// ApplyResponse splits body on carriage returns and stores each named
// position in s, verbatim. Short replies update fewer fields and extra
// positions are dropped. It returns the number of fields written.
func ApplyResponse(s *Session, body []byte) int {
	parts := bytes.Split(body, []byte{'\r'})

	written := 0
	for _, b := range replyTable {
		if b.Position >= len(parts) {
			break
		}
		if b.Name == "" {
			continue
		}
		s.Set(b.Name, string(parts[b.Position]))
		written++
	}
	return written
}
