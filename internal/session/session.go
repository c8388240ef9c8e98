package session

import (
	"path/filepath"
	"time"
)

// Session identifies one record-to-summary lifecycle. The directory
// path doubles as the opaque session handle carried on worker events.
type Session struct {
	Dir       string
	CreatedAt time.Time
}

func (s *Session) AudioPath() string {
	return filepath.Join(s.Dir, "audio.wav")
}

func (s *Session) TranscriptPath() string {
	return filepath.Join(s.Dir, "transcript.txt")
}

func (s *Session) SummaryPath() string {
	return filepath.Join(s.Dir, "summary.txt")
}

func (s *Session) SummaryDocxPath() string {
	return filepath.Join(s.Dir, "summary.docx")
}
