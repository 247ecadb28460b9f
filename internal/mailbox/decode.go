package mailbox

import (
	"bytes"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailmind/internal/model"
)

// Decode parses one raw message into its header fields and the best
// available body content.
//
// Headers are decoded through RFC 2047 encoded words best-effort:
// undecodable values fall back to their raw form, never an error. The
// Date header is kept as the transport-native string.
//
// Body selection walks the MIME parts in document order. The first
// text/plain part wins immediately. If traversal ends without one,
// the first text/html part encountered becomes the HTML fallback.
// Single-part and multipart messages are handled uniformly, and a
// decode error on any individual part skips that part only.
func Decode(raw RawMessage) model.DecodedMessage {
	var dm model.DecodedMessage

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Unparseable message: treat the whole blob as plain text.
		dm.BodyPlain = string(raw)
		return dm
	}
	defer mr.Close()

	dm.Sender = headerText(mr.Header, "From")
	dm.Subject = headerText(mr.Header, "Subject")
	dm.Date = mr.Header.Get("Date")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed part boundary; keep whatever was found so far.
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()

		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			// Plain text needs no further cleaning; stop here.
			dm.BodyPlain = string(body)
			return dm
		case strings.HasPrefix(contentType, "text/html"):
			if dm.BodyHTML == "" {
				dm.BodyHTML = string(body)
			}
		}
	}

	return dm
}

// headerText decodes a header value permissively: on a charset or
// encoded-word error the raw value is returned instead.
func headerText(h mail.Header, key string) string {
	text, err := h.Text(key)
	if err != nil {
		return h.Get(key)
	}
	return text
}
