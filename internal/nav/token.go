// Package nav encodes menu positions into callback data and resolves them
// back to catalog coordinates.
//
// Telegram caps callback data at 64 bytes, so tokens carry catalog indices
// rather than subject and topic names. A token is a callback unique (the
// action) plus a pipe-separated payload:
//
//	sub      s
//	topic    s|t
//	back     s
//	show     s|t|slot
//	push     s|t|slot
//	addlec   s|t
//
// slot is "a" for the assignments slot or "l<i>" for the i-th lecture.
package nav

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/coursebot/core/telegram/keyboard"
	"github.com/m3rciful/coursebot/internal/catalog"
)

// Action identifies what a button does.
type Action string

const (
	ActionHome       Action = "home"
	ActionSubject    Action = "sub"
	ActionTopic      Action = "topic"
	ActionBack       Action = "back"
	ActionShow       Action = "show"
	ActionPush       Action = "push"
	ActionAddLecture Action = "addlec"
	ActionAdminUsers Action = "adm_users"
)

// ErrMalformedToken is returned for callback data that does not decode.
var ErrMalformedToken = errors.New("nav: malformed token")

const (
	sep            = "|"
	slotAssignment = "a"
	slotLecture    = "l"
	maxDataLen     = 64
)

// Slot selects a slot within a topic.
type Slot struct {
	Kind    catalog.SlotKind
	Lecture int
}

// Token is a decoded menu position.
type Token struct {
	Action  Action
	Subject int
	Topic   int
	Slot    Slot
}

// Home returns the root menu token.
func Home() Token { return Token{Action: ActionHome} }

// Subject opens the topic list of subject s.
func Subject(s int) Token { return Token{Action: ActionSubject, Subject: s} }

// Topic opens the slot list of topic t in subject s.
func Topic(s, t int) Token { return Token{Action: ActionTopic, Subject: s, Topic: t} }

// Back returns from a topic view to the topic list of subject s.
func Back(s int) Token { return Token{Action: ActionBack, Subject: s} }

// Show renders the items of a slot.
func Show(s, t int, slot Slot) Token {
	return Token{Action: ActionShow, Subject: s, Topic: t, Slot: slot}
}

// Push arms ingestion into a slot.
func Push(s, t int, slot Slot) Token {
	return Token{Action: ActionPush, Subject: s, Topic: t, Slot: slot}
}

// AddLecture appends a lecture to topic t.
func AddLecture(s, t int) Token { return Token{Action: ActionAddLecture, Subject: s, Topic: t} }

// AdminUsers exports the user registry.
func AdminUsers() Token { return Token{Action: ActionAdminUsers} }

// AssignmentsSlot selects the assignments slot.
func AssignmentsSlot() Slot { return Slot{Kind: catalog.SlotAssignments} }

// LectureSlot selects the i-th lecture.
func LectureSlot(i int) Slot { return Slot{Kind: catalog.SlotLecture, Lecture: i} }

// Payload returns the callback data for t, without the unique prefix.
func (t Token) Payload() string {
	switch t.Action {
	case ActionSubject, ActionBack:
		return strconv.Itoa(t.Subject)
	case ActionTopic, ActionAddLecture:
		return join(t.Subject, t.Topic)
	case ActionShow, ActionPush:
		return join(t.Subject, t.Topic) + sep + t.Slot.String()
	}
	return ""
}

// Button renders t as an inline button with the given label.
func (t Token) Button(label string) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: label, Unique: string(t.Action), Data: t.Payload()}
}

func (s Slot) String() string {
	if s.Kind == catalog.SlotLecture {
		return slotLecture + strconv.Itoa(s.Lecture)
	}
	return slotAssignment
}

// Decode parses a callback unique and payload into a token.
func Decode(unique, payload string) (Token, error) {
	if len(unique)+len(payload)+2 > maxDataLen {
		return Token{}, fmt.Errorf("%w: too long", ErrMalformedToken)
	}
	action := Action(strings.TrimSpace(unique))
	var parts []string
	if payload != "" {
		parts = strings.Split(payload, sep)
	}
	switch action {
	case ActionHome, ActionAdminUsers:
		if len(parts) != 0 {
			return Token{}, fmt.Errorf("%w: %s takes no payload", ErrMalformedToken, action)
		}
		return Token{Action: action}, nil
	case ActionSubject, ActionBack:
		nums, err := ints(parts, 1)
		if err != nil {
			return Token{}, err
		}
		return Token{Action: action, Subject: nums[0]}, nil
	case ActionTopic, ActionAddLecture:
		nums, err := ints(parts, 2)
		if err != nil {
			return Token{}, err
		}
		return Token{Action: action, Subject: nums[0], Topic: nums[1]}, nil
	case ActionShow, ActionPush:
		if len(parts) != 3 {
			return Token{}, fmt.Errorf("%w: %s wants 3 fields", ErrMalformedToken, action)
		}
		nums, err := ints(parts[:2], 2)
		if err != nil {
			return Token{}, err
		}
		slot, err := parseSlot(parts[2])
		if err != nil {
			return Token{}, err
		}
		return Token{Action: action, Subject: nums[0], Topic: nums[1], Slot: slot}, nil
	}
	return Token{}, fmt.Errorf("%w: unknown action %q", ErrMalformedToken, unique)
}

func parseSlot(s string) (Slot, error) {
	if s == slotAssignment {
		return AssignmentsSlot(), nil
	}
	rest, ok := strings.CutPrefix(s, slotLecture)
	if !ok {
		return Slot{}, fmt.Errorf("%w: slot %q", ErrMalformedToken, s)
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return Slot{}, fmt.Errorf("%w: slot %q", ErrMalformedToken, s)
	}
	return LectureSlot(i), nil
}

func ints(parts []string, n int) ([]int, error) {
	if len(parts) != n {
		return nil, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedToken, n, len(parts))
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: field %q", ErrMalformedToken, p)
		}
		out[i] = v
	}
	return out, nil
}

func join(a, b int) string {
	return strconv.Itoa(a) + sep + strconv.Itoa(b)
}
