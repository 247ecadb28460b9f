// Package mailbox fetches raw messages from an IMAP inbox over a date
// range and decodes them into header fields plus the best available
// body content. Fetching is best-effort: individual messages that fail
// to download or decode are skipped, and partial results are the
// expected outcome of an ingestion run.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// RawMessage is one raw RFC 5322 message as fetched from the server.
type RawMessage []byte

// Client wraps go-imap v2 for connecting to and querying an IMAP
// server.
type Client struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewClient creates a new IMAP client configuration.
func NewClient(host, port, username, password string, tls bool) *Client {
	return &Client{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (c *Client) Connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, &ConnError{
			Message: fmt.Sprintf("connecting to IMAP %s: %v", addr, err),
			Err:     err,
		}
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Account: c.username,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v", c.username, err,
			),
		}
	}

	return client, nil
}

// searchRejected reports whether err is a tagged NO/BAD response to
// the search command, as opposed to a transport failure. The server
// answering the search with a failure status means the mailbox has
// nothing usable to return; losing the connection does not.
func searchRejected(err error) bool {
	var imapErr *imap.Error
	return errors.As(err, &imapErr)
}

// searchCriteria builds the date-bounded search for [start, end].
// SINCE is inclusive but BEFORE is exclusive, so the upper bound is
// shifted by one day to make the caller-visible range inclusive on
// both ends.
func searchCriteria(start, end time.Time) *imap.SearchCriteria {
	return &imap.SearchCriteria{
		Since:  start,
		Before: end.AddDate(0, 0, 1),
	}
}

// FetchRange connects to IMAP, selects INBOX, and fetches the full
// raw bodies of all messages dated within [start, end], inclusive on
// both ends.
//
// A search that reports a non-success status yields an empty result,
// not an error. Messages that fail to download are skipped.
func (c *Client) FetchRange(
	ctx context.Context, start, end time.Time,
) ([]RawMessage, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, &ConnError{
			Message: fmt.Sprintf("selecting INBOX: %v", err),
			Err:     err,
		}
	}

	searchData, err := client.UIDSearch(searchCriteria(start, end), nil).Wait()
	if err != nil {
		if searchRejected(err) {
			// No messages is not a failure.
			return nil, nil
		}
		return nil, &ConnError{
			Message: fmt.Sprintf("searching INBOX: %v", err),
			Err:     err,
		}
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	uidSet := imap.UIDSetNum(uids...)

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var messages []RawMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		raw := buf.FindBodySection(bodySection)
		if raw == nil {
			continue
		}

		messages = append(messages, RawMessage(raw))
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, &ConnError{
			Message: fmt.Sprintf("fetching messages: %v", err),
			Err:     err,
		}
	}

	return messages, nil
}
