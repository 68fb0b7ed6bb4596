// Package menu renders the navigation views: subject list, topic list,
// slot list and the admin panel.
package menu

import (
	"fmt"

	"github.com/m3rciful/coursebot/core/telegram/keyboard"
	"github.com/m3rciful/coursebot/internal/nav"

	tele "gopkg.in/telebot.v4"
)

// Catalog is the read side of the content store needed for rendering.
type Catalog interface {
	Subjects() []string
	Topics(subject string) ([]string, error)
	Lectures(subject, topic string) ([]string, error)
	SubjectAt(i int) (string, error)
	TopicAt(si, ti int) (string, string, error)
}

// View is a message body with its inline keyboard.
type View struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Menu builds views over a catalog.
type Menu struct {
	catalog Catalog
}

// New returns a menu over c.
func New(c Catalog) *Menu {
	return &Menu{catalog: c}
}

// Home lists the subjects, numbered from 1.
func (m *Menu) Home() View {
	subjects := m.catalog.Subjects()
	rows := make([][]keyboard.InlineBtn, 0, len(subjects))
	for i, name := range subjects {
		rows = append(rows, []keyboard.InlineBtn{
			nav.Subject(i).Button(fmt.Sprintf("%d. %s", i+1, name)),
		})
	}
	return View{Text: TextChooseSubject, Markup: keyboard.InlineButtonsRows(rows...)}
}

// Topics lists the topics of subject si followed by a home button.
func (m *Menu) Topics(si int) (View, error) {
	subject, err := m.catalog.SubjectAt(si)
	if err != nil {
		return View{}, err
	}
	topics, err := m.catalog.Topics(subject)
	if err != nil {
		return View{}, err
	}
	rows := make([][]keyboard.InlineBtn, 0, len(topics)+1)
	for ti, name := range topics {
		rows = append(rows, []keyboard.InlineBtn{nav.Topic(si, ti).Button(name)})
	}
	rows = append(rows, []keyboard.InlineBtn{nav.Home().Button(LabelHome)})
	return View{
		Text:   fmt.Sprintf("اختر فرعًا في %s:", Isolate(subject)),
		Markup: keyboard.InlineButtonsRows(rows...),
	}, nil
}

// Slots lists the slots of topic (si, ti). Admins also get the add-lecture row.
func (m *Menu) Slots(si, ti int, admin bool) (View, error) {
	subject, topic, err := m.catalog.TopicAt(si, ti)
	if err != nil {
		return View{}, err
	}
	lectures, err := m.catalog.Lectures(subject, topic)
	if err != nil {
		return View{}, err
	}
	assignments := nav.AssignmentsSlot()
	rows := make([][]keyboard.InlineBtn, 0, len(lectures)+3)
	rows = append(rows, []keyboard.InlineBtn{
		nav.Show(si, ti, assignments).Button(LabelAssignments),
		nav.Push(si, ti, assignments).Button(LabelPush),
	})
	for li, name := range lectures {
		slot := nav.LectureSlot(li)
		rows = append(rows, []keyboard.InlineBtn{
			nav.Show(si, ti, slot).Button(name),
			nav.Push(si, ti, slot).Button(LabelPushShort),
		})
	}
	if admin {
		rows = append(rows, []keyboard.InlineBtn{nav.AddLecture(si, ti).Button(LabelAddLecture)})
	}
	rows = append(rows, []keyboard.InlineBtn{
		nav.Back(si).Button(LabelBack),
		nav.Home().Button(LabelHome),
	})
	return View{
		Text:   fmt.Sprintf("%s / %s — اختر قسمًا:", Isolate(subject), Isolate(topic)),
		Markup: keyboard.InlineButtonsRows(rows...),
	}, nil
}

// SlotsRefresh is the slot list sent as a new message after adding a lecture.
func (m *Menu) SlotsRefresh(si, ti int) (View, error) {
	v, err := m.Slots(si, ti, true)
	if err != nil {
		return View{}, err
	}
	subject, topic, _ := m.catalog.TopicAt(si, ti)
	v.Text = fmt.Sprintf("%s / %s — الأقسام:", Isolate(subject), Isolate(topic))
	return v, nil
}

// AdminPanel offers the users export and a way home.
func (m *Menu) AdminPanel() View {
	return View{
		Text: TextAdminPanel,
		Markup: keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{nav.AdminUsers().Button(LabelAdminUsers)},
			[]keyboard.InlineBtn{nav.Home().Button(LabelHome)},
		),
	}
}

// ContactKeyboard asks for an optional phone number.
func ContactKeyboard() *tele.ReplyMarkup {
	return keyboard.ContactRequest(LabelSharePhone, PhonePlaceholder)
}
