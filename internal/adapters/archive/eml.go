package archive

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/mikey/project-digest/internal/core"
	"golang.org/x/text/encoding/htmlindex"
)

// EmlParser reads RFC 5322 messages
type EmlParser struct {
	decoder *mime.WordDecoder
}

// NewEmlParser creates a new EmlParser
func NewEmlParser() *EmlParser {
	return &EmlParser{
		decoder: &mime.WordDecoder{CharsetReader: charsetReader},
	}
}

// Parse extracts subject, date and the text body of a message
func (p *EmlParser) Parse(data []byte) (*core.ParsedEmail, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := p.decoder.DecodeHeader(subject); err == nil {
		subject = decoded
	}

	var date time.Time
	if t, err := msg.Header.Date(); err == nil {
		date = t
	}

	body, err := extractText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}

	return &core.ParsedEmail{
		Subject: strings.TrimSpace(subject),
		Date:    date,
		Body:    body,
	}, nil
}

// extractText returns the text/plain content of a part, descending into
// multiparts. HTML is used only when no plain text exists.
func extractText(contentType, transferEncoding string, body io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
		params = map[string]string{}
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(decodeTransfer(transferEncoding, body))
		if err != nil {
			return "", err
		}
		return decodeCharset(params["charset"], data), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var plain, html strings.Builder
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// keep what was read so far
			break
		}

		partType := part.Header.Get("Content-Type")
		if partType == "" {
			partType = "text/plain"
		}
		partMedia, _, _ := mime.ParseMediaType(partType)
		if disp, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disp == "attachment" {
			continue
		}

		// NextPart decodes quoted-printable and drops the header
		text, err := extractText(partType, part.Header.Get("Content-Transfer-Encoding"), part)
		if err != nil {
			continue
		}
		switch {
		case partMedia == "text/html":
			html.WriteString(text)
			html.WriteString("\n")
		case partMedia == "text/plain" || strings.HasPrefix(partMedia, "multipart/"):
			plain.WriteString(text)
			plain.WriteString("\n")
		}
	}

	if plain.Len() > 0 {
		return plain.String(), nil
	}
	return html.String(), nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	}
	return r
}

func decodeCharset(charset string, data []byte) string {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return string(data)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}
