package record

import (
	"strings"
	"testing"

	"github.com/nhle/mailmind/internal/model"
)

func TestBuild_PrefersPlainBody(t *testing.T) {
	dm := model.DecodedMessage{
		Sender:    "alice@example.com",
		Subject:   "Greetings",
		Date:      "Mon, 06 Jan 2025 10:00:00 +0000",
		BodyPlain: "Hello <b>world</b>",
		BodyHTML:  "<p>HTML version</p>",
	}

	r := Build(dm)

	// Plain text is used verbatim, with no sanitization applied.
	if r.Body != "Hello <b>world</b>" {
		t.Errorf("Body = %q, want the plain body verbatim", r.Body)
	}
}

func TestBuild_SanitizesHTMLFallback(t *testing.T) {
	dm := model.DecodedMessage{
		Sender:   "carol@example.com",
		Subject:  "Newsletter",
		Date:     "Wed, 08 Jan 2025 12:00:00 +0000",
		BodyHTML: "<p>Hi&nbsp;there</p><style>.a{color:red}</style>",
	}

	r := Build(dm)

	if r.Body != "Hi there" {
		t.Errorf("Body = %q, want %q", r.Body, "Hi there")
	}
}

func TestValidate(t *testing.T) {
	valid := model.EmailRecord{
		Sender:  "alice@example.com",
		Subject: "Greetings",
		Date:    "Mon, 06 Jan 2025 10:00:00 +0000",
		Body:    "Hello",
	}

	if err := Validate(valid); err != nil {
		t.Fatalf("Validate(valid) error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *model.EmailRecord)
		field  string
	}{
		{"missing sender", func(r *model.EmailRecord) { r.Sender = "" }, "sender"},
		{"missing subject", func(r *model.EmailRecord) { r.Subject = "" }, "subject"},
		{"missing date", func(r *model.EmailRecord) { r.Date = "" }, "date"},
		{"missing body", func(r *model.EmailRecord) { r.Body = "" }, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)

			err := Validate(r)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !IsValidationError(err) {
				t.Errorf("IsValidationError(%v) = false, want true", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %q", err, tt.field)
			}
		})
	}
}

func TestCanonicalText(t *testing.T) {
	r := model.EmailRecord{
		Sender:  "alice@example.com",
		Subject: "Greetings",
		Date:    "Mon, 06 Jan 2025 10:00:00 +0000",
		Body:    "Hello there",
	}

	got := CanonicalText(r)
	want := "Sender: alice@example.com\n" +
		"Subject: Greetings\n" +
		"Date: Mon, 06 Jan 2025 10:00:00 +0000\n" +
		"\n" +
		"Hello there"

	if got != want {
		t.Errorf("CanonicalText() = %q, want %q", got, want)
	}
}

func TestCanonicalText_TruncatesReplyChain(t *testing.T) {
	r := model.EmailRecord{
		Sender:  "bob@example.com",
		Subject: "Re: Update",
		Date:    "Tue, 07 Jan 2025 09:30:00 +0000",
		Body:    "New reply content.\n> old quoted text",
	}

	got := CanonicalText(r)

	if strings.Contains(got, "old quoted text") {
		t.Errorf("CanonicalText() = %q, quoted reply survived", got)
	}
	if !strings.Contains(got, "New reply content.") {
		t.Errorf("CanonicalText() = %q, lost the newest content", got)
	}
}
