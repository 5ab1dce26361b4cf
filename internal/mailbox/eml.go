package mailbox

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"io"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// textPolicy strips every tag, leaving only text content
var textPolicy = bluemonday.StrictPolicy()

// ParseEMLFile parses an .eml file into a Message
func ParseEMLFile(filePath string) (*Message, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseEML(f)
}

// ParseEML parses an email from a reader. The message id comes from the
// Message-Id header; messages without one get a content hash instead, so
// the same file always yields the same id.
func ParseEML(r io.Reader) (*Message, error) {
	// Read the entire message first, the content hash needs the raw bytes
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	msg := &Message{}
	header := mr.Header

	if msgID := header.Get("Message-Id"); msgID != "" {
		msg.ID = strings.Trim(strings.TrimSpace(msgID), "<>")
	}
	if msg.ID == "" {
		sum := sha256.Sum256(buf.Bytes())
		msg.ID = hex.EncodeToString(sum[:])
	}

	// Subject - decode MIME words
	msg.Subject = decodeMIMEWord(header.Get("Subject"))

	if fromAddrs, err := header.AddressList("From"); err == nil && len(fromAddrs) > 0 {
		msg.Sender = Address{Name: fromAddrs[0].Name, Email: fromAddrs[0].Address}
	}

	if toAddrs, err := header.AddressList("To"); err == nil {
		for _, addr := range toAddrs {
			msg.Recipients = append(msg.Recipients, Address{Name: addr.Name, Email: addr.Address})
		}
	}

	if date, err := header.Date(); err == nil && !date.IsZero() {
		msg.Received = date
	} else {
		// Use current time as fallback
		msg.Received = time.Now()
	}

	// Walk the parts, preferring a text/plain body over converted HTML
	var bodyHTML string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			if msg.BodyText == "" {
				msg.BodyText = strings.TrimSpace(string(body))
			}
		case strings.HasPrefix(contentType, "text/html"):
			bodyHTML = string(body)
		}
	}

	if msg.BodyText == "" && bodyHTML != "" {
		msg.BodyText = HTMLToText(bodyHTML)
	}

	return msg, nil
}

// HTMLToText flattens an HTML body into plain text: tags are stripped,
// entities decoded, and whitespace collapsed to single spaces.
func HTMLToText(s string) string {
	// A space in front of every tag keeps words from running together
	// once the tags are removed
	spaced := strings.ReplaceAll(s, "<", " <")
	text := textPolicy.Sanitize(spaced)
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047)
// Example: =?UTF-8?Q?Invitaci=C3=B3n?= -> Invitación
func decodeMIMEWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		// If decoding fails, return original string
		return s
	}
	return decoded
}
