package model

// DecodedMessage holds the header fields and body candidates extracted
// from one raw mailbox message. At least one body field is populated
// unless no decodable part existed; BodyPlain is preferred whenever
// both are present.
type DecodedMessage struct {
	// Sender is the decoded From header.
	Sender string

	// Subject is the decoded Subject header.
	Subject string

	// Date is the transport-native Date header string, never reparsed.
	Date string

	// BodyPlain is the first text/plain part, verbatim.
	BodyPlain string

	// BodyHTML is the first text/html part, used only as a fallback
	// when no plain-text part exists.
	BodyHTML string
}

// EmailRecord is the canonical per-message record used both for
// indexing and for display. Body is plain human-readable text: either
// the original plain-text body or HTML reduced to text. Records are
// created once at ingestion time and never mutated.
type EmailRecord struct {
	Sender  string
	Subject string
	Date    string
	Body    string
}
