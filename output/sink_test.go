package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/maastricht-university/interview-pipeline/transcriber"
)

func TestDirSinkSessionLifecycle(t *testing.T) {
	root := t.TempDir()
	sink := NewDirSink(root)

	sid, err := sink.Begin("/audio/interview.wav")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, st := range []Status{StatusUploaded, StatusProcessing, StatusCompleted} {
		if err := sink.SetStatus(sid, st); err != nil {
			t.Fatalf("SetStatus(%s): %v", st, err)
		}
	}

	segments := []transcriber.Segment{
		{Text: "hello", Start: 0, End: 1.5, Speaker: transcriber.SpeakerInterviewer, Confidence: 0.9},
		{Text: "hi there", Start: 1.5, End: 3, Speaker: transcriber.SpeakerInterviewee, Confidence: 0.8},
	}
	if err := sink.WriteTranscript(sid, "/audio/interview.wav", 3, segments); err != nil {
		t.Fatalf("WriteTranscript: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(root, sid, "transcript.json"))
	if err != nil {
		t.Fatal(err)
	}
	var bundle Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		t.Fatal(err)
	}
	if bundle.SessionID != sid || len(bundle.Segments) != 2 {
		t.Errorf("bundle = %+v", bundle)
	}
	if bundle.Segments[1].Speaker != transcriber.SpeakerInterviewee {
		t.Errorf("speaker roundtrip = %q", bundle.Segments[1].Speaker)
	}

	raw, err = os.ReadFile(filepath.Join(root, sid, "status.json"))
	if err != nil {
		t.Fatal(err)
	}
	var history []struct {
		Status Status `json:"status"`
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 || history[2].Status != StatusCompleted {
		t.Errorf("status history = %+v", history)
	}

	if _, err := os.Stat(filepath.Join(root, sid, "transcript.yaml")); err != nil {
		t.Errorf("yaml transcript missing: %v", err)
	}
}
