package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/m3rciful/coursebot/core/logger"
)

var (
	// ErrUnknownSubject is returned for subject names or indices outside the catalog.
	ErrUnknownSubject = errors.New("catalog: unknown subject")
	// ErrUnknownTopic is returned for topics that do not belong to the subject.
	ErrUnknownTopic = errors.New("catalog: unknown topic")
	// ErrUnknownSlot is returned for lecture slots that do not exist in the topic.
	ErrUnknownSlot = errors.New("catalog: unknown slot")
)

// DefaultLecturePrefix names lecture slots when no prefix is configured.
const DefaultLecturePrefix = "المحاضرة"

// Journal durably records store mutations. Store calls it before applying
// a change in memory; a journal error aborts the mutation.
type Journal interface {
	AddLecture(ctx context.Context, subject, topic, name string, position int) error
	AppendItem(ctx context.Context, ref SlotRef, position int, item Item) error
}

// Options configures a Store.
type Options struct {
	LecturePrefix string
	Journal       Journal
}

type lecture struct {
	name  string
	items []Item
}

type topic struct {
	name        string
	assignments []Item
	lectures    []*lecture
}

type subject struct {
	name   string
	topics []*topic
}

// Store is the in-memory content tree: subjects → topics → slots → items.
type Store struct {
	mu       sync.RWMutex
	prefix   string
	journal  Journal
	subjects []*subject
}

// New builds a store from the seed. Every topic starts with an empty
// assignments slot and a default lecture.
func New(seed Seed, opts Options) (*Store, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	prefix := strings.TrimSpace(opts.LecturePrefix)
	if prefix == "" {
		prefix = DefaultLecturePrefix
	}
	s := &Store{prefix: prefix, journal: opts.Journal}
	for _, ss := range seed {
		sub := &subject{name: strings.TrimSpace(ss.Name)}
		for _, name := range ss.Topics {
			sub.topics = append(sub.topics, &topic{
				name:     strings.TrimSpace(name),
				lectures: []*lecture{{name: s.DefaultLecture()}},
			})
		}
		s.subjects = append(s.subjects, sub)
	}
	return s, nil
}

// DefaultLecture is the lecture every topic is seeded with.
func (s *Store) DefaultLecture() string {
	return s.prefix + " 1"
}

// LecturePrefix returns the prefix used for generated lecture names.
func (s *Store) LecturePrefix() string {
	return s.prefix
}

// SetJournal attaches the journal after startup replay.
func (s *Store) SetJournal(j Journal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal = j
}

// Subjects lists subject names in catalog order.
func (s *Store) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.subjects))
	for i, sub := range s.subjects {
		out[i] = sub.name
	}
	return out
}

// Topics lists topic names of a subject in catalog order.
func (s *Store) Topics(subjectName string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub := s.findSubject(subjectName)
	if sub == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, subjectName)
	}
	out := make([]string, len(sub.topics))
	for i, t := range sub.topics {
		out[i] = t.name
	}
	return out, nil
}

// Lectures lists lecture slot names of a topic in creation order.
func (s *Store) Lectures(subjectName, topicName string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.findTopic(subjectName, topicName)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.lectures))
	for i, l := range t.lectures {
		out[i] = l.name
	}
	return out, nil
}

// SubjectAt resolves a subject by its catalog index.
func (s *Store) SubjectAt(i int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.subjects) {
		return "", fmt.Errorf("%w: index %d", ErrUnknownSubject, i)
	}
	return s.subjects[i].name, nil
}

// TopicAt resolves a topic of a subject by index.
func (s *Store) TopicAt(si, ti int) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if si < 0 || si >= len(s.subjects) {
		return "", "", fmt.Errorf("%w: index %d", ErrUnknownSubject, si)
	}
	sub := s.subjects[si]
	if ti < 0 || ti >= len(sub.topics) {
		return "", "", fmt.Errorf("%w: index %d", ErrUnknownTopic, ti)
	}
	return sub.name, sub.topics[ti].name, nil
}

// LectureAt resolves a lecture name of a topic by index.
func (s *Store) LectureAt(subjectName, topicName string, li int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.findTopic(subjectName, topicName)
	if err != nil {
		return "", err
	}
	if li < 0 || li >= len(t.lectures) {
		return "", fmt.Errorf("%w: lecture index %d", ErrUnknownSlot, li)
	}
	return t.lectures[li].name, nil
}

// Items returns a copy of the slot's items in append order.
func (s *Store) Items(ref SlotRef) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, err := s.slotItems(ref)
	if err != nil {
		return nil, err
	}
	return append([]Item(nil), (*items)...), nil
}

// Append adds an item to the end of the slot and returns its 1-based position.
func (s *Store) Append(ctx context.Context, ref SlotRef, item Item) (int, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.slotItems(ref)
	if err != nil {
		return 0, err
	}
	pos := len(*items) + 1
	if s.journal != nil {
		if err := s.journal.AppendItem(ctx, ref, pos, item); err != nil {
			return 0, fmt.Errorf("catalog: persist item: %w", err)
		}
	}
	*items = append(*items, item)
	logger.Info(ctx, "service.catalog", "item.appended",
		slog.String("status", "ok"),
		slog.String("subject", ref.Subject),
		slog.String("topic", ref.Topic),
		slog.String("slot", string(ref.Kind)),
		slog.String("lecture", ref.Lecture),
		slog.String("kind", string(item.Kind)),
		slog.Int("count", pos),
	)
	return pos, nil
}

// AddLecture creates the next numbered lecture slot in the topic.
func (s *Store) AddLecture(ctx context.Context, subjectName, topicName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.findTopic(subjectName, topicName)
	if err != nil {
		return "", err
	}
	existing := make([]string, len(t.lectures))
	for i, l := range t.lectures {
		existing[i] = l.name
	}
	name := NextLectureName(s.prefix, existing)
	if s.journal != nil {
		if err := s.journal.AddLecture(ctx, subjectName, topicName, name, len(t.lectures)+1); err != nil {
			return "", fmt.Errorf("catalog: persist lecture: %w", err)
		}
	}
	t.lectures = append(t.lectures, &lecture{name: name})
	logger.Info(ctx, "service.catalog", "lecture.added",
		slog.String("status", "ok"),
		slog.String("subject", subjectName),
		slog.String("topic", topicName),
		slog.String("lecture", name),
		slog.Int("count", len(t.lectures)),
	)
	return name, nil
}

// RestoreLecture re-creates a lecture read back from the journal. Existing
// lectures are left untouched.
func (s *Store) RestoreLecture(subjectName, topicName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.findTopic(subjectName, topicName)
	if err != nil {
		return err
	}
	if t.findLecture(name) != nil {
		return nil
	}
	t.lectures = append(t.lectures, &lecture{name: name})
	return nil
}

// RestoreItem appends a journaled item without writing it back.
func (s *Store) RestoreItem(ref SlotRef, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.slotItems(ref)
	if err != nil {
		return err
	}
	*items = append(*items, item)
	return nil
}

func (s *Store) findSubject(name string) *subject {
	for _, sub := range s.subjects {
		if sub.name == name {
			return sub
		}
	}
	return nil
}

func (s *Store) findTopic(subjectName, topicName string) (*topic, error) {
	sub := s.findSubject(subjectName)
	if sub == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, subjectName)
	}
	for _, t := range sub.topics {
		if t.name == topicName {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %q", ErrUnknownTopic, topicName, subjectName)
}

func (t *topic) findLecture(name string) *lecture {
	for _, l := range t.lectures {
		if l.name == name {
			return l
		}
	}
	return nil
}

// slotItems must be called with s.mu held.
func (s *Store) slotItems(ref SlotRef) (*[]Item, error) {
	t, err := s.findTopic(ref.Subject, ref.Topic)
	if err != nil {
		return nil, err
	}
	switch ref.Kind {
	case SlotAssignments:
		return &t.assignments, nil
	case SlotLecture:
		l := t.findLecture(ref.Lecture)
		if l == nil {
			return nil, fmt.Errorf("%w: lecture %q", ErrUnknownSlot, ref.Lecture)
		}
		return &l.items, nil
	}
	return nil, fmt.Errorf("%w: kind %q", ErrUnknownSlot, ref.Kind)
}
