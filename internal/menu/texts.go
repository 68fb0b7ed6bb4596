package menu

import (
	"fmt"

	"github.com/m3rciful/coursebot/internal/catalog"
)

// User-facing labels.
const (
	LabelAssignments = "التكاليف"
	LabelPush        = "📤 إدخال/بث"
	LabelPushShort   = "📤"
	LabelAddLecture  = "➕ إضافة محاضرة"
	LabelBack        = "🔙 رجوع"
	LabelHome        = "🏠 الرئيسية"
	LabelAdminUsers  = "👥 الاستعلام عن المستخدمين"
	LabelSharePhone  = "📱 مشاركة رقم الهاتف"
	PhonePlaceholder = "(اختياري) شارك رقم هاتفك"
)

// Fixed messages.
const (
	DefaultWelcome = "السلام عليكم ورحمة الله وبركاته\n\n" +
		"إذا وجدت أي نقص في البوت يُرجى التواصل في الخاص @BOT0ADMIN"
	TextAwaitContent = "أرسل الآن *أي نوع محتوى* (نص/صورة/PDF/ملف/فيديو/صوت...).\n" +
		"سيتم حفظه ضمن الخانة المحددة، \n" +
		"ويمكنك اختيار بثّه لكل المستخدمين مباشرة بالرسالة التالية."
)

const (
	TextChooseSubject   = "اختر مادة من القائمة:"
	TextAdminPanel      = "لوحة المشرف:"
	TextAdminOnlyCmd    = "هذا الأمر للمشرف فقط."
	TextAdminOnlyButton = "هذا الزر للمشرف فقط."
	TextPhoneSaved      = "شكرًا، تم حفظ رقم هاتفك."
	TextPreparingUsers  = "جارٍ تجهيز ملف المستخدمين..."
	TextUnsupported     = "نوع الرسالة غير مدعوم للحفظ حاليًا، أرسل نصًا/صورة/ملفًا/صوتًا/فيديو."
	TextNothingToSend   = "لا يوجد محتوى محفوظ للبث."
	TextStale           = "هذه القائمة قديمة، اختر من جديد."
	TextUnknownAction   = "إجراء غير مدعوم"
	TextSaveFailed      = "تعذّر حفظ المحتوى، حاول مرة أخرى."
	UsersFileName       = "users.csv"
)

const (
	placeholderNone    = "بدون"
	placeholderNoPhone = "غير مرفق"
	bidiIsolateOpen    = "\u2068"
	bidiIsolateClose   = "\u2069"
)

// Isolate wraps s in first-strong isolate marks so mixed-direction names
// render in order.
func Isolate(s string) string {
	return bidiIsolateOpen + s + bidiIsolateClose
}

// SlotTitle returns the label of a slot.
func SlotTitle(ref catalog.SlotRef) string {
	return ref.Title(LabelAssignments)
}

func slotPath(ref catalog.SlotRef) string {
	return Isolate(fmt.Sprintf("%s / %s / %s", ref.Subject, ref.Topic, SlotTitle(ref)))
}

// EmptySlot is the notice for a slot without items.
func EmptySlot(ref catalog.SlotRef) string {
	return fmt.Sprintf("لا يوجد محتوى بعد في %s.\nيمكن للمشرف إضافة محتوى عبر أزرار (📤/➕).", slotPath(ref))
}

// SlotHeading precedes the items of a non-empty slot.
func SlotHeading(ref catalog.SlotRef) string {
	return fmt.Sprintf("سيتم إرسال محتوى %s:", slotPath(ref))
}

// ItemFailed reports an item that could not be delivered.
func ItemFailed(err error) string {
	return fmt.Sprintf("تعذّر إرسال عنصر بسبب خطأ: %v", err)
}

// Captured confirms a stored item and suggests the broadcast keyword.
func Captured(ref catalog.SlotRef, keyword string) string {
	return fmt.Sprintf("✅ تم الحفظ في %s.\nأرسل كلمة \"%s\" الآن لبث نفس المحتوى لكل المستخدمين، أو تجاهل للإنهاء.",
		slotPath(ref), keyword)
}

// LectureAdded confirms a new lecture slot.
func LectureAdded(subject, topic, name string) string {
	return fmt.Sprintf("تمت إضافة %s في %s / %s.", Isolate(name), Isolate(subject), Isolate(topic))
}

// BroadcastDone reports how many users received the broadcast.
func BroadcastDone(sent int) string {
	return fmt.Sprintf("🔔 تم البث إلى %d مستخدم(ين).", sent)
}

// UsersCaption accompanies the users export.
func UsersCaption(count int) string {
	return fmt.Sprintf("عدد المستخدمين الحالي: %d", count)
}

// NewUserNotice tells the admin about a first visit.
func NewUserNotice(name, username string, id int64, phone string, total int) string {
	if username == "" {
		username = placeholderNone
	}
	if phone == "" {
		phone = placeholderNoPhone
	}
	return fmt.Sprintf("👤 دخول مستخدم جديد:\nالاسم: %s\nالمعرف: @%s\nالآيدي: %d\nالهاتف: %s\nإجمالي المشاركين: %d",
		name, username, id, phone, total)
}
