package protocol

// StartRecording builds the recorder's start command. A negative
// deviceIndex selects the system default input device.
func StartRecording(audioOut, transcriptOut string, deviceIndex int) Command {
	cmd := Command{
		Cmd:           "start",
		Out:           audioOut,
		TranscriptOut: transcriptOut,
	}
	if deviceIndex >= 0 {
		idx := deviceIndex
		cmd.DeviceIndex = &idx
	}
	return cmd
}

func StopRecording() Command { return Command{Cmd: "stop"} }

func PauseRecording() Command { return Command{Cmd: "pause"} }

func ResumeRecording() Command { return Command{Cmd: "resume"} }

func Shutdown() Command { return Command{Cmd: "shutdown"} }

// TranscribeFile builds the transcriber daemon's one-shot command.
func TranscribeFile(wavPath, transcriptOut string) Command {
	return Command{Cmd: "transcribe", Wav: wavPath, Out: transcriptOut}
}

// LoadTranscriberModel switches the transcriber daemon's whisper model
// without restarting the process.
func LoadTranscriberModel(model string) Command {
	return Command{Cmd: "load_model", Model: model}
}

// LoadSummarizerModel switches the summarizer daemon's GGUF model
// without restarting the process.
func LoadSummarizerModel(modelPath string) Command {
	return Command{Cmd: "load_model", ModelPath: modelPath}
}

// Summarize builds a summarization request. ctx is echoed back on every
// resulting event and drives response routing.
func Summarize(text, out string, chunkWords int, ctx *Context) Command {
	return Command{
		Cmd:        "summarize",
		Text:       text,
		Out:        out,
		ChunkWords: chunkWords,
		Context:    ctx,
	}
}

// FollowUpEmail builds an ad hoc follow-up generation request,
// correlated by id rather than session. A nil temperature or zero
// maxTokens leaves the daemon's own default in place.
func FollowUpEmail(id, summary, studentName, instructions string, temperature *float64, maxTokens int) Command {
	return Command{
		Cmd:          "followup_email",
		ID:           id,
		Summary:      summary,
		StudentName:  studentName,
		Instructions: instructions,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}
}
