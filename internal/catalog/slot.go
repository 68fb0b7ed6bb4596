package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SlotKind distinguishes the assignments bucket from lecture buckets.
type SlotKind string

const (
	SlotAssignments SlotKind = "assignments"
	SlotLecture     SlotKind = "lecture"
)

// SlotRef addresses a content slot by names. Lecture is set only for
// lecture slots.
type SlotRef struct {
	Subject string
	Topic   string
	Kind    SlotKind
	Lecture string
}

// Assignments returns the assignments slot of a topic.
func Assignments(subject, topic string) SlotRef {
	return SlotRef{Subject: subject, Topic: topic, Kind: SlotAssignments}
}

// Lecture returns a named lecture slot of a topic.
func Lecture(subject, topic, name string) SlotRef {
	return SlotRef{Subject: subject, Topic: topic, Kind: SlotLecture, Lecture: name}
}

// Title returns the human label of the slot.
func (r SlotRef) Title(assignmentsLabel string) string {
	if r.Kind == SlotAssignments {
		return assignmentsLabel
	}
	return r.Lecture
}

func (r SlotRef) String() string {
	if r.Kind == SlotAssignments {
		return fmt.Sprintf("%s/%s/%s", r.Subject, r.Topic, r.Kind)
	}
	return fmt.Sprintf("%s/%s/%s/%s", r.Subject, r.Topic, r.Kind, r.Lecture)
}

// NextLectureName returns "<prefix> N" where N is one more than the largest
// numeric suffix among existing names carrying the prefix, or 1 if none do.
// Names that do not parse are ignored, so gaps never get refilled.
func NextLectureName(prefix string, existing []string) string {
	next := 1
	head := prefix + " "
	for _, name := range existing {
		if !strings.HasPrefix(name, head) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(name, head)))
		if err != nil || n < 0 || n == math.MaxInt {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s %d", prefix, next)
}
