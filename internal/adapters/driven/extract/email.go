package extract

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// Email extracts headers and body text from RFC 822 messages.
type Email struct{}

// Name returns the format name.
func (Email) Name() string { return "email" }

// Extensions returns the extensions handled.
func (Email) Extensions() []string {
	return []string{".eml"}
}

// Extract returns the From, To, Date and Subject headers followed by the
// message body. Plain text parts are preferred over HTML.
func (Email) Extract(data []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse message: %w", err)
	}

	var b strings.Builder
	for _, key := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(key)); v != "" {
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\n")
		}
	}

	body, err := messageBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return "", err
	}
	if body = strings.TrimSpace(body); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\r\n", "\n")), nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the raw value
// when decoding fails.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func messageBody(contentType, encoding string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return multipartBody(r, params["boundary"])
	}

	if strings.EqualFold(encoding, "quoted-printable") {
		r = quotedprintable.NewReader(r)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	switch mediaType {
	case "text/html":
		return stripHTML(string(raw)), nil
	case "text/plain":
		return string(raw), nil
	default:
		return "", nil
	}
}

func multipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var text, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF ends the message; anything else is a truncated part.
			break
		}
		if part.FileName() != "" {
			part.Close()
			continue
		}

		contentType := part.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "text/plain"
		}
		mediaType, _, perr := mime.ParseMediaType(contentType)
		if perr != nil {
			part.Close()
			continue
		}

		// multipart.Part decodes quoted-printable itself.
		body, berr := messageBody(contentType, "", part)
		part.Close()
		if berr != nil || strings.TrimSpace(body) == "" {
			continue
		}

		switch {
		case mediaType == "text/html":
			htmlParts = append(htmlParts, body)
		default:
			text = append(text, body)
		}
	}

	if len(text) > 0 {
		return strings.Join(text, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}
