package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/scribe-flow/internal/config"
	"github.com/nguyentantai21042004/scribe-flow/internal/export"
	"github.com/nguyentantai21042004/scribe-flow/internal/logger"
	"github.com/nguyentantai21042004/scribe-flow/internal/protocol"
	"github.com/nguyentantai21042004/scribe-flow/internal/summarizer"
	"github.com/nguyentantai21042004/scribe-flow/pkg/executor"
)

type implPipeline struct {
	cfg        *config.Config
	executor   executor.Executor
	summarizer summarizer.Summarizer
	logger     logger.Logger
}

// Process runs the full ingest pipeline for a dropped recording:
// normalize audio, transcribe, summarize, export, archive.
func (p *implPipeline) Process(ctx context.Context, audioPath string) error {
	startTime := time.Now()
	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting ingest: %s", audioPath)
	p.logger.Info(ctx, "========================================")

	// Step 1: Normalize to 16kHz mono WAV
	wavPath, err := p.normalizeAudio(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("normalize audio: %w", err)
	}
	defer p.cleanupTempFile(ctx, wavPath)

	// Step 2: Transcribe
	transcript, err := p.transcribe(ctx, wavPath, baseName)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return fmt.Errorf("empty transcript for %s", audioPath)
	}

	// Step 3: Summarize
	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	// Step 4: Write outputs to the archive folder
	if err := p.writeOutputs(ctx, baseName, transcript, summary); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	// Step 5: Move original recording to the archive folder
	if err := p.moveToArchived(ctx, audioPath); err != nil {
		p.logger.Warn(ctx, "Failed to move original to archive folder: %v", err)
	}

	duration := time.Since(startTime)
	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Ingest completed: %s (%s)", baseName, duration)
	p.logger.Info(ctx, "========================================")

	return nil
}

// normalizeAudio converts the input to 16kHz mono PCM WAV, the format
// Whisper handles best.
func (p *implPipeline) normalizeAudio(ctx context.Context, audioPath string) (string, error) {
	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	wavPath := filepath.Join(p.cfg.Ingest.Temp, baseName+"_16k.wav")

	p.logger.Info(ctx, "Normalizing audio: %s", audioPath)

	args := []string{
		"-i", audioPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		wavPath,
	}

	if _, err := p.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return "", fmt.Errorf("ffmpeg normalize: %w", err)
	}

	return wavPath, nil
}

// transcribe runs the one-shot transcription script and extracts the
// transcript text from its JSON event stream.
func (p *implPipeline) transcribe(ctx context.Context, wavPath, baseName string) (string, error) {
	transcriptOut := filepath.Join(p.cfg.Ingest.Temp, baseName+".txt")
	script := filepath.Join(p.cfg.Workers.ScriptsDir, "transcribe_file.py")

	p.logger.Info(ctx, "Transcribing: %s (model: %s)", wavPath, p.cfg.Workers.Transcriber.Model)

	output, err := p.executor.Execute(ctx, p.cfg.Workers.Python,
		script,
		"--model", p.cfg.Workers.Transcriber.Model,
		"--audio", wavPath,
		"--transcript-out", transcriptOut,
	)
	if err != nil {
		return "", fmt.Errorf("run transcriber: %w", err)
	}
	defer p.cleanupTempFile(ctx, transcriptOut)

	return transcriptFromOutput(output)
}

// transcriptFromOutput scans the script's stdout for a terminal event.
// The script emits one JSON object per line.
func transcriptFromOutput(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		ev, ok := protocol.Parse([]byte(line))
		if !ok {
			continue
		}
		switch ev.Event {
		case protocol.EventDone:
			return ev.Text, nil
		case protocol.EventError:
			return "", fmt.Errorf("transcriber error: %s", ev.ErrorMessage())
		}
	}
	return "", fmt.Errorf("transcriber produced no terminal event")
}

// writeOutputs writes transcript and summary files next to the
// archived recording.
func (p *implPipeline) writeOutputs(ctx context.Context, baseName, transcript, summary string) error {
	transcriptPath := filepath.Join(p.cfg.Ingest.Archived, baseName+".txt")
	summaryPath := filepath.Join(p.cfg.Ingest.Archived, baseName+".md")
	docxPath := filepath.Join(p.cfg.Ingest.Archived, baseName+".docx")

	if err := os.WriteFile(transcriptPath, []byte(transcript), 0644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := os.WriteFile(summaryPath, []byte(summary), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if err := export.SummaryToDocx(baseName, summary, docxPath); err != nil {
		p.logger.Warn(ctx, "Failed to write summary docx: %v", err)
	}

	p.logger.Info(ctx, "Outputs written: %s, %s", transcriptPath, summaryPath)
	return nil
}

// moveToArchived moves the original recording out of the drop folder
func (p *implPipeline) moveToArchived(ctx context.Context, audioPath string) error {
	destPath := filepath.Join(p.cfg.Ingest.Archived, filepath.Base(audioPath))

	p.logger.Info(ctx, "Archiving: %s -> %s", audioPath, destPath)

	if err := os.Rename(audioPath, destPath); err != nil {
		return fmt.Errorf("move to archive: %w", err)
	}

	return nil
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (p *implPipeline) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	}
}
