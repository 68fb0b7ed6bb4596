package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"pgregory.net/rapid"
)

func newTestStore(t *testing.T, j Journal) *Store {
	t.Helper()
	s, err := New(DefaultSeed(), Options{LecturePrefix: "Lecture", Journal: j})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestNewSeedsAssignmentsAndDefaultLecture(t *testing.T) {
	s := newTestStore(t, nil)
	subjects := s.Subjects()
	if len(subjects) != len(DefaultSeed()) {
		t.Fatalf("subjects = %d, want %d", len(subjects), len(DefaultSeed()))
	}
	for _, sub := range subjects {
		topics, err := s.Topics(sub)
		if err != nil {
			t.Fatalf("topics(%s): %v", sub, err)
		}
		if len(topics) == 0 {
			t.Fatalf("subject %s has no topics", sub)
		}
		for _, top := range topics {
			lectures, err := s.Lectures(sub, top)
			if err != nil {
				t.Fatalf("lectures(%s/%s): %v", sub, top, err)
			}
			if len(lectures) != 1 || lectures[0] != "Lecture 1" {
				t.Fatalf("lectures(%s/%s) = %v", sub, top, lectures)
			}
			items, err := s.Items(Assignments(sub, top))
			if err != nil {
				t.Fatalf("assignments(%s/%s): %v", sub, top, err)
			}
			if len(items) != 0 {
				t.Fatalf("assignments(%s/%s) not empty", sub, top)
			}
		}
	}
}

func TestSeedValidate(t *testing.T) {
	cases := []struct {
		name string
		seed Seed
	}{
		{"empty", Seed{}},
		{"no topics", Seed{{Name: "A"}}},
		{"blank subject", Seed{{Name: " ", Topics: []string{"x"}}}},
		{"duplicate subject", Seed{{Name: "A", Topics: []string{"x"}}, {Name: "A", Topics: []string{"y"}}}},
		{"duplicate topic", Seed{{Name: "A", Topics: []string{"x", "x"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.seed.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if err := DefaultSeed().Validate(); err != nil {
		t.Fatalf("default seed: %v", err)
	}
}

func TestNextLectureName(t *testing.T) {
	cases := []struct {
		existing []string
		want     string
	}{
		{nil, "Lecture 1"},
		{[]string{"Lecture 1"}, "Lecture 2"},
		{[]string{"Lecture 1", "Lecture 7", "Lecture 3"}, "Lecture 8"},
		{[]string{"Intro", "Lecture x"}, "Lecture 1"},
		{[]string{"Lecture 0"}, "Lecture 1"},
		{[]string{"Lecture 1", "Lecture 2", fmt.Sprintf("Lecture %d", math.MaxInt)}, "Lecture 3"},
	}
	for _, tc := range cases {
		if got := NextLectureName("Lecture", tc.existing); got != tc.want {
			t.Fatalf("NextLectureName(%v) = %q, want %q", tc.existing, got, tc.want)
		}
	}
}

func TestAddLectureNeverDuplicates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, err := New(DefaultSeed(), Options{LecturePrefix: "Lecture"})
		if err != nil {
			rt.Fatalf("new store: %v", err)
		}
		for _, n := range rapid.SliceOfN(rapid.IntRange(1, 50), 0, 5).Draw(rt, "restored") {
			if err := s.RestoreLecture("الرياضيات", "الهياكل المقاطعة", fmt.Sprintf("Lecture %d", n)); err != nil {
				rt.Fatalf("restore: %v", err)
			}
		}
		adds := rapid.IntRange(1, 8).Draw(rt, "adds")
		for i := 0; i < adds; i++ {
			before, _ := s.Lectures("الرياضيات", "الهياكل المقاطعة")
			want := NextLectureName("Lecture", before)
			got, err := s.AddLecture(context.Background(), "الرياضيات", "الهياكل المقاطعة")
			if err != nil {
				rt.Fatalf("add lecture: %v", err)
			}
			if got != want {
				rt.Fatalf("added %q, want %q", got, want)
			}
		}
		names, _ := s.Lectures("الرياضيات", "الهياكل المقاطعة")
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			if seen[n] {
				rt.Fatalf("duplicate lecture %q in %v", n, names)
			}
			seen[n] = true
		}
	})
}

func TestAppendIsFIFOAndIsolated(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, err := New(DefaultSeed(), Options{LecturePrefix: "Lecture"})
		if err != nil {
			rt.Fatalf("new store: %v", err)
		}
		target := Assignments("الرياضيات", "الهياكل المقاطعة")
		other := Lecture("الرياضيات", "الهياكل المقاطعة", "Lecture 1")
		texts := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 1, 20).Draw(rt, "texts")
		for _, txt := range texts {
			if _, err := s.Append(context.Background(), target, TextItem(txt)); err != nil {
				rt.Fatalf("append: %v", err)
			}
		}
		got, _ := s.Items(target)
		if len(got) != len(texts) {
			rt.Fatalf("items = %d, want %d", len(got), len(texts))
		}
		for i := range texts {
			if got[i].Text != texts[i] {
				rt.Fatalf("item %d = %q, want %q", i, got[i].Text, texts[i])
			}
		}
		untouched, _ := s.Items(other)
		if len(untouched) != 0 {
			rt.Fatalf("other slot mutated: %v", untouched)
		}
	})
}

func TestAppendRejectsUnknownSlots(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	if _, err := s.Append(ctx, Assignments("nope", "عام"), TextItem("x")); !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("unknown subject err = %v", err)
	}
	if _, err := s.Append(ctx, Assignments("الرياضيات", "nope"), TextItem("x")); !errors.Is(err, ErrUnknownTopic) {
		t.Fatalf("unknown topic err = %v", err)
	}
	if _, err := s.Append(ctx, Lecture("الرياضيات", "الهياكل المقاطعة", "Lecture 9"), TextItem("x")); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("unknown lecture err = %v", err)
	}
	if _, err := s.Append(ctx, Assignments("الرياضيات", "الهياكل المقاطعة"), Item{Kind: KindPhoto}); err == nil {
		t.Fatalf("expected validation error for photo without file id")
	}
}

type failingJournal struct{ err error }

func (f failingJournal) AddLecture(context.Context, string, string, string, int) error { return f.err }
func (f failingJournal) AppendItem(context.Context, SlotRef, int, Item) error          { return f.err }

func TestJournalFailureLeavesStateUnchanged(t *testing.T) {
	boom := errors.New("disk full")
	s := newTestStore(t, failingJournal{err: boom})
	ctx := context.Background()
	ref := Assignments("الرياضيات", "الهياكل المقاطعة")
	if _, err := s.Append(ctx, ref, TextItem("x")); !errors.Is(err, boom) {
		t.Fatalf("append err = %v, want %v", err, boom)
	}
	if items, _ := s.Items(ref); len(items) != 0 {
		t.Fatalf("items after failed append = %v", items)
	}
	if _, err := s.AddLecture(ctx, "الرياضيات", "الهياكل المقاطعة"); !errors.Is(err, boom) {
		t.Fatalf("add lecture err = %v, want %v", err, boom)
	}
	if lectures, _ := s.Lectures("الرياضيات", "الهياكل المقاطعة"); len(lectures) != 1 {
		t.Fatalf("lectures after failed add = %v", lectures)
	}
}

func TestIndexResolution(t *testing.T) {
	s := newTestStore(t, nil)
	sub, top, err := s.TopicAt(2, 1)
	if err != nil {
		t.Fatalf("topic at: %v", err)
	}
	if sub != "الرياضيات" || top != "الإحصاء والاحتمالات" {
		t.Fatalf("TopicAt(2,1) = %s/%s", sub, top)
	}
	if _, _, err := s.TopicAt(2, 5); !errors.Is(err, ErrUnknownTopic) {
		t.Fatalf("out of range topic err = %v", err)
	}
	if _, err := s.SubjectAt(-1); !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("negative subject err = %v", err)
	}
	lec, err := s.LectureAt(sub, top, 0)
	if err != nil || lec != "Lecture 1" {
		t.Fatalf("LectureAt = %q, %v", lec, err)
	}
}
