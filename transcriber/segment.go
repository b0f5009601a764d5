package transcriber

// Speaker is the role assigned to a segment by diarization.
type Speaker string

const (
	SpeakerUnassigned  Speaker = "unassigned"
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerInterviewee Speaker = "interviewee"
)

// Segment is one finalized piece of recognized speech. Segments
// partition elapsed playback time: Start of segment i+1 equals End of
// segment i, and the first segment starts at 0.
type Segment struct {
	Text       string  `json:"text" yaml:"text"`
	Start      float64 `json:"start" yaml:"start"` // sec
	End        float64 `json:"end" yaml:"end"`     // sec
	Speaker    Speaker `json:"speaker" yaml:"speaker"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Words returns the number of whitespace-separated words in the text.
func (s Segment) Words() int {
	n := 0
	inWord := false
	for _, r := range s.Text {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				n++
			}
			inWord = true
		}
	}
	return n
}
