package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantOK    bool
		wantEvent string
	}{
		{"done event", `{"event":"done","out":"/tmp/t.txt","text":"hi","secs":1.2}`, true, "done"},
		{"partial with context", `{"event":"done","context":{"type":"chunk","sessionDir":"/s/1","chunkId":3}}`, true, "done"},
		{"leading whitespace", `  {"event":"ready"}`, true, "ready"},
		{"diagnostic text", "loading model small.en on cpu", false, ""},
		{"broken json", `{"event":`, false, ""},
		{"json without event", `{"msg":"whatever"}`, false, ""},
		{"empty line", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Parse([]byte(tt.line))
			if ok != tt.wantOK {
				t.Fatalf("Parse() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && ev.Event != tt.wantEvent {
				t.Errorf("event = %q, want %q", ev.Event, tt.wantEvent)
			}
		})
	}
}

func TestParseContextEcho(t *testing.T) {
	ev, ok := Parse([]byte(`{"event":"done","text":"sum","context":{"type":"final","sessionDir":"/s/2"}}`))
	if !ok {
		t.Fatal("Parse() failed")
	}
	if ev.Context == nil || ev.Context.Type != ContextFinal || ev.Context.SessionDir != "/s/2" {
		t.Errorf("context = %+v", ev.Context)
	}
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	line, err := Encode(StopRecording())
	if err != nil {
		t.Fatal(err)
	}
	if string(line) != `{"cmd":"stop"}`+"\n" {
		t.Errorf("encoded = %q", line)
	}
}

func TestEncodeStartRecording(t *testing.T) {
	line, err := Encode(StartRecording("/s/audio.wav", "/s/transcript.txt", 2))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(line), "\n") {
		t.Error("missing newline terminator")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(line, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["cmd"] != "start" || decoded["out"] != "/s/audio.wav" {
		t.Errorf("decoded = %v", decoded)
	}
	if decoded["device_index"] != float64(2) {
		t.Errorf("device_index = %v", decoded["device_index"])
	}

	// Default device: the key must be absent entirely
	line, err = Encode(StartRecording("/s/audio.wav", "/s/transcript.txt", -1))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(line), "device_index") {
		t.Errorf("default device leaked into command: %s", line)
	}
}

func TestTranscriberCommands(t *testing.T) {
	cmd := TranscribeFile("/s/audio.wav", "/s/transcript.txt")
	if cmd.Cmd != "transcribe" || cmd.Wav != "/s/audio.wav" || cmd.Out != "/s/transcript.txt" {
		t.Errorf("TranscribeFile() = %+v", cmd)
	}

	// The two daemons key their reload on different fields.
	if cmd := LoadTranscriberModel("small.en"); cmd.Model != "small.en" || cmd.ModelPath != "" {
		t.Errorf("LoadTranscriberModel() = %+v", cmd)
	}
	if cmd := LoadSummarizerModel("/m/q.gguf"); cmd.ModelPath != "/m/q.gguf" || cmd.Model != "" {
		t.Errorf("LoadSummarizerModel() = %+v", cmd)
	}
}

func TestFollowUpEmailCommand(t *testing.T) {
	temp := 0.5
	line, err := Encode(FollowUpEmail("fu-1", "recap", "Kim", "be brief", &temp, 256))
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(line, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["cmd"] != "followup_email" || decoded["id"] != "fu-1" {
		t.Errorf("decoded = %v", decoded)
	}
	if decoded["temperature"] != 0.5 || decoded["max_tokens"] != float64(256) {
		t.Errorf("sampling params = %v / %v", decoded["temperature"], decoded["max_tokens"])
	}

	// Without explicit sampling params the daemon's defaults apply.
	line, err = Encode(FollowUpEmail("fu-2", "recap", "", "", nil, 0))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(line), "temperature") || strings.Contains(string(line), "max_tokens") {
		t.Errorf("defaults leaked into command: %s", line)
	}
}

func TestErrorMessage(t *testing.T) {
	if got := (Event{Msg: "boom"}).ErrorMessage(); got != "boom" {
		t.Errorf("ErrorMessage() = %q", got)
	}
	if got := (Event{Message: "setup failed"}).ErrorMessage(); got != "setup failed" {
		t.Errorf("ErrorMessage() = %q", got)
	}
}
