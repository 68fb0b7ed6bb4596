// Package deliverytest provides an in-memory delivery.Transport for tests.
package deliverytest

import (
	"context"
	"sync"
)

// Sent records one outbound call.
type Sent struct {
	ChatID  int64
	Op      string
	Text    string
	FileID  string
	Caption string
}

// Transport records sends and fails for chats listed in FailFor and files
// listed in FailFile.
type Transport struct {
	mu       sync.Mutex
	FailFor  map[int64]error
	FailFile map[string]error
	Sent     []Sent
}

// New returns an empty recording transport.
func New() *Transport {
	return &Transport{FailFor: make(map[int64]error), FailFile: make(map[string]error)}
}

// Fail makes every send to chatID return err.
func (t *Transport) Fail(chatID int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.FailFor[chatID] = err
}

// FailFileID makes every send of fileID return err.
func (t *Transport) FailFileID(fileID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.FailFile[fileID] = err
}

// To returns the sends recorded for chatID.
func (t *Transport) To(chatID int64) []Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Sent
	for _, s := range t.Sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of successful sends.
func (t *Transport) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Sent)
}

func (t *Transport) record(s Sent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailFor[s.ChatID]; err != nil {
		return err
	}
	if err := t.FailFile[s.FileID]; s.FileID != "" && err != nil {
		return err
	}
	t.Sent = append(t.Sent, s)
	return nil
}

func (t *Transport) SendText(_ context.Context, chatID int64, text string) error {
	return t.record(Sent{ChatID: chatID, Op: "text", Text: text})
}

func (t *Transport) SendPhoto(_ context.Context, chatID int64, fileID, caption string) error {
	return t.record(Sent{ChatID: chatID, Op: "photo", FileID: fileID, Caption: caption})
}

func (t *Transport) SendDocument(_ context.Context, chatID int64, fileID, caption string) error {
	return t.record(Sent{ChatID: chatID, Op: "document", FileID: fileID, Caption: caption})
}

func (t *Transport) SendVideo(_ context.Context, chatID int64, fileID, caption string) error {
	return t.record(Sent{ChatID: chatID, Op: "video", FileID: fileID, Caption: caption})
}

func (t *Transport) SendAudio(_ context.Context, chatID int64, fileID, caption string) error {
	return t.record(Sent{ChatID: chatID, Op: "audio", FileID: fileID, Caption: caption})
}

func (t *Transport) SendVoice(_ context.Context, chatID int64, fileID, caption string) error {
	return t.record(Sent{ChatID: chatID, Op: "voice", FileID: fileID, Caption: caption})
}
