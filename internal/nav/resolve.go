package nav

import (
	"github.com/m3rciful/coursebot/internal/catalog"
)

// Catalog is the read side of the content store used to resolve indices.
type Catalog interface {
	SubjectAt(i int) (string, error)
	TopicAt(si, ti int) (string, string, error)
	LectureAt(subject, topic string, li int) (string, error)
}

// TopicNames resolves t.Subject and t.Topic.
func (t Token) TopicNames(c Catalog) (string, string, error) {
	return c.TopicAt(t.Subject, t.Topic)
}

// SlotRef resolves the slot addressed by t. Indices that no longer exist
// yield the catalog's unknown-subject, unknown-topic or unknown-slot errors.
func (t Token) SlotRef(c Catalog) (catalog.SlotRef, error) {
	subject, topic, err := c.TopicAt(t.Subject, t.Topic)
	if err != nil {
		return catalog.SlotRef{}, err
	}
	if t.Slot.Kind != catalog.SlotLecture {
		return catalog.Assignments(subject, topic), nil
	}
	name, err := c.LectureAt(subject, topic, t.Slot.Lecture)
	if err != nil {
		return catalog.SlotRef{}, err
	}
	return catalog.Lecture(subject, topic, name), nil
}
