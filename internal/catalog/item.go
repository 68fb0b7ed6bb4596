package catalog

import "fmt"

// ItemKind enumerates the content variants a slot can hold.
type ItemKind string

const (
	KindText     ItemKind = "text"
	KindPhoto    ItemKind = "photo"
	KindDocument ItemKind = "document"
	KindVideo    ItemKind = "video"
	KindAudio    ItemKind = "audio"
	KindVoice    ItemKind = "voice"
)

// Valid reports whether k is one of the known item kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case KindText, KindPhoto, KindDocument, KindVideo, KindAudio, KindVoice:
		return true
	}
	return false
}

// Item is a single piece of published content. Text items carry Text;
// every other kind carries the transport file id and an optional caption.
type Item struct {
	Kind    ItemKind
	FileID  string
	Caption string
	Text    string
}

// TextItem builds a text item.
func TextItem(text string) Item {
	return Item{Kind: KindText, Text: text}
}

// MediaItem builds a media item of the given kind.
func MediaItem(kind ItemKind, fileID, caption string) Item {
	return Item{Kind: kind, FileID: fileID, Caption: caption}
}

// Validate checks that the item carries the payload its kind requires.
func (it Item) Validate() error {
	if !it.Kind.Valid() {
		return fmt.Errorf("catalog: unknown item kind %q", it.Kind)
	}
	if it.Kind == KindText {
		if it.Text == "" {
			return fmt.Errorf("catalog: text item without text")
		}
		return nil
	}
	if it.FileID == "" {
		return fmt.Errorf("catalog: %s item without file id", it.Kind)
	}
	return nil
}
