package keyboard

import "testing"

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "A", Unique: "sub", Data: "0"}, {Text: "B", Unique: "push", Data: "0|1|a"}},
		[]InlineBtn{{Text: "Home", Unique: "home"}},
	)
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[0]) != 2 || len(m.InlineKeyboard[1]) != 1 {
		t.Fatalf("layout = %+v", m.InlineKeyboard)
	}
	b := m.InlineKeyboard[0][1]
	if b.Text != "B" || b.Unique != "push" || b.Data != "0|1|a" {
		t.Fatalf("button = %+v", b)
	}
}

func TestContactRequest(t *testing.T) {
	m := ContactRequest("share", "optional")
	if !m.OneTimeKeyboard || !m.ResizeKeyboard || m.Placeholder != "optional" {
		t.Fatalf("markup flags = %+v", m)
	}
	if len(m.ReplyKeyboard) != 1 || len(m.ReplyKeyboard[0]) != 1 {
		t.Fatalf("keyboard = %+v", m.ReplyKeyboard)
	}
	if btn := m.ReplyKeyboard[0][0]; btn.Text != "share" || !btn.Contact {
		t.Fatalf("button = %+v", btn)
	}
}

func TestRemoveKeyboard(t *testing.T) {
	if !RemoveKeyboard().RemoveKeyboard {
		t.Fatal("expected remove flag")
	}
}
