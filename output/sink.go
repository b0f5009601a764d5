// Package output receives what the pipeline emits downstream: the
// final segment sequence and the recording's status transitions.
// Persistence proper is not this system's job; DirSink is the
// file-based stand-in the CLI uses.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/interview-pipeline/transcriber"
)

// Status of a recording as it moves through the pipeline.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Sink is the downstream collaborator contract.
type Sink interface {
	Begin(audioPath string) (sessionID string, err error)
	SetStatus(sessionID string, st Status) error
	WriteTranscript(sessionID, audioPath string, duration float64, segments []transcriber.Segment) error
}

// Bundle is the persisted transcript document.
type Bundle struct {
	SessionID   string                `json:"session_id"`
	AudioPath   string                `json:"audio_path"`
	GeneratedAt time.Time             `json:"generated_at"`
	Duration    float64               `json:"duration"`
	Segments    []transcriber.Segment `json:"segments"`
}

type statusEntry struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

// DirSink writes one directory per session under a root: the JSON
// bundle, a human-readable YAML transcript, and the status history.
type DirSink struct {
	root string
}

func NewDirSink(root string) *DirSink { return &DirSink{root: root} }

func (s *DirSink) Begin(audioPath string) (string, error) {
	ts := time.Now().Format("20060102-150405")
	sid := "session_" + ts
	if err := os.MkdirAll(filepath.Join(s.root, sid), 0o755); err != nil {
		return "", fmt.Errorf("session dir: %w", err)
	}
	return sid, nil
}

func (s *DirSink) SetStatus(sessionID string, st Status) error {
	path := filepath.Join(s.root, sessionID, "status.json")
	var history []statusEntry
	if raw, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(raw, &history)
	}
	history = append(history, statusEntry{Status: st, At: time.Now()})
	return writeJSON(path, history)
}

func (s *DirSink) WriteTranscript(sessionID, audioPath string, duration float64, segments []transcriber.Segment) error {
	dir := filepath.Join(s.root, sessionID)
	bundle := Bundle{
		SessionID:   sessionID,
		AudioPath:   audioPath,
		GeneratedAt: time.Now(),
		Duration:    duration,
		Segments:    segments,
	}
	if err := writeJSON(filepath.Join(dir, "transcript.json"), bundle); err != nil {
		return err
	}
	return writeYAML(filepath.Join(dir, "transcript.yaml"), segments)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	defer enc.Close()
	return enc.Encode(v)
}
