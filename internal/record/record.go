// Package record assembles decoded messages into the canonical email
// records used for indexing and display.
package record

import (
	"errors"
	"fmt"

	"github.com/nhle/mailmind/internal/model"
	"github.com/nhle/mailmind/internal/sanitize"
)

// ValidationError indicates a structurally invalid email record.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("email record is missing required field %q", e.Field)
}

// IsValidationError reports whether err (or any error in its chain)
// is a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// Build assembles an EmailRecord from a decoded message. The plain
// body is used verbatim when present; otherwise the HTML fallback is
// reduced to text.
func Build(dm model.DecodedMessage) model.EmailRecord {
	body := dm.BodyPlain
	if body == "" && dm.BodyHTML != "" {
		body = sanitize.Clean(dm.BodyHTML)
	}

	return model.EmailRecord{
		Sender:  dm.Sender,
		Subject: dm.Subject,
		Date:    dm.Date,
		Body:    body,
	}
}

// Validate checks that every required field is present. It runs before
// any embedding work, so one malformed record aborts the whole
// indexing batch.
func Validate(r model.EmailRecord) error {
	switch {
	case r.Sender == "":
		return &ValidationError{Field: "sender"}
	case r.Subject == "":
		return &ValidationError{Field: "subject"}
	case r.Date == "":
		return &ValidationError{Field: "date"}
	case r.Body == "":
		return &ValidationError{Field: "body"}
	}
	return nil
}

// CanonicalText produces the header-prefixed block that is embedded
// into the similarity index. The body goes through the indexing-path
// cleaning pipeline, which also truncates quoted reply chains.
func CanonicalText(r model.EmailRecord) string {
	return fmt.Sprintf(
		"Sender: %s\nSubject: %s\nDate: %s\n\n%s",
		r.Sender, r.Subject, r.Date, sanitize.CleanForIndex(r.Body),
	)
}
