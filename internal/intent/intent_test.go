package intent

import (
	"testing"

	"github.com/baseer-ai/baseer/internal/models"
)

func TestClassify_SingleKeyword(t *testing.T) {
	cases := []struct {
		reply   string
		intent  models.Intent
		cleaned string
	}{
		{"PHONEاتصل بعمر", models.IntentPhone, "اتصل بعمر"},
		{"CAMERA افتح الكاميرا", models.IntentCamera, " افتح الكاميرا"},
		{"من فضلك WIFI شغل الواي فاي", models.IntentWifi, "من فضلك  شغل الواي فاي"},
		{"الساعة الان TIME", models.IntentTime, "الساعة الان "},
	}
	for _, c := range cases {
		it, cleaned := Classify(c.reply)
		if it != c.intent {
			t.Errorf("Classify(%q) intent = %q, want %q", c.reply, it, c.intent)
		}
		if cleaned != c.cleaned {
			t.Errorf("Classify(%q) cleaned = %q, want %q", c.reply, cleaned, c.cleaned)
		}
	}
}

func TestClassify_RemovesKeywordOnce(t *testing.T) {
	it, cleaned := Classify("SOUND ارفع الصوت SOUND")
	if it != models.IntentSound {
		t.Fatalf("expected SOUND intent, got %q", it)
	}
	if cleaned != " ارفع الصوت SOUND" {
		t.Errorf("expected single removal, got %q", cleaned)
	}
}

func TestClassify_NoKeyword(t *testing.T) {
	reply := "أهلا بك، كيف يمكنني مساعدتك؟"
	it, cleaned := Classify(reply)
	if it != models.IntentNone {
		t.Errorf("expected no intent, got %q", it)
	}
	if cleaned != reply {
		t.Errorf("expected reply unchanged, got %q", cleaned)
	}
}

func TestClassify_PriorityOrderWins(t *testing.T) {
	// WHATSAPP appears first in the text but LOCATION is earlier in the
	// priority enumeration, so LOCATION must win.
	it, cleaned := Classify("WHATSAPP ثم LOCATION")
	if it != models.IntentLocation {
		t.Fatalf("expected LOCATION to win, got %q", it)
	}
	if cleaned != "WHATSAPP ثم " {
		t.Errorf("unexpected cleaned text %q", cleaned)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  سطر\nآخر - نهاية \n")
	want := "سطر آخر   نهاية"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestResolvePhone_DirectoryOrder(t *testing.T) {
	contacts := []models.Contact{
		{Name: "Sara", Phone: "0100000001"},
		{Name: "Omar", Phone: "0100000002"},
	}
	phone, cleaned := ResolvePhone(contacts, "اتصل بـ Omar الان")
	if phone != "0100000002" {
		t.Errorf("phone = %q, want 0100000002", phone)
	}
	if cleaned != "اتصل بـ  الان" {
		t.Errorf("cleaned = %q", cleaned)
	}
}

func TestResolvePhone_FirstMatchWins(t *testing.T) {
	contacts := []models.Contact{
		{Name: "Sara", Phone: "0100000001"},
		{Name: "Omar", Phone: "0100000002"},
	}
	phone, _ := ResolvePhone(contacts, "Omar و Sara")
	if phone != "0100000001" {
		t.Errorf("expected directory iteration order to break the tie, got %q", phone)
	}
}

func TestResolvePhone_NoMatchIsIdempotent(t *testing.T) {
	contacts := []models.Contact{{Name: "Sara", Phone: "0100000001"}}
	text := "اتصل بشخص غير معروف"

	phone1, cleaned1 := ResolvePhone(contacts, text)
	phone2, cleaned2 := ResolvePhone(contacts, cleaned1)
	if phone1 != "" || phone2 != "" {
		t.Errorf("expected absent phone on both calls, got %q and %q", phone1, phone2)
	}
	if cleaned1 != text || cleaned2 != text {
		t.Errorf("expected text unchanged, got %q then %q", cleaned1, cleaned2)
	}
}

func TestResolvePhone_EmptyDirectory(t *testing.T) {
	phone, cleaned := ResolvePhone(nil, "اتصل بعمر")
	if phone != "" || cleaned != "اتصل بعمر" {
		t.Errorf("expected pass-through on empty directory, got %q %q", phone, cleaned)
	}
}
