package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/mikey/project-digest/internal/core"
	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// MAPI property streams of the top-level message
const (
	streamSubjectUnicode = "__substg1.0_0037001F"
	streamSubjectANSI    = "__substg1.0_0037001E"
	streamBodyUnicode    = "__substg1.0_1000001F"
	streamBodyANSI       = "__substg1.0_1000001E"
	streamHTMLBinary     = "__substg1.0_10130102"
	streamHTMLUnicode    = "__substg1.0_1013001F"
	streamHeadersUnicode = "__substg1.0_007D001F"
	streamHeadersANSI    = "__substg1.0_007D001E"
	streamProperties     = "__properties_version1.0"
)

const (
	tagClientSubmitTime    = 0x00390040
	tagMessageDeliveryTime = 0x0E060040

	// top-level property stream header and entry sizes
	propertiesHeaderSize = 32
	propertyEntrySize    = 16

	// 100ns intervals between 1601-01-01 and 1970-01-01
	filetimeEpochDelta = 116444736000000000
)

// MsgParser reads Outlook .msg files (OLE compound documents)
type MsgParser struct{}

// NewMsgParser creates a new MsgParser
func NewMsgParser() *MsgParser {
	return &MsgParser{}
}

// Parse extracts subject, timestamp and body from a .msg file
func (p *MsgParser) Parse(data []byte) (*core.ParsedEmail, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}

	streams := make(map[string][]byte)
	for entry, err := doc.Next(); err != io.EOF; entry, err = doc.Next() {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
		}
		// attachments and recipients live in sub-storages
		if len(entry.Path) > 0 || entry.Size == 0 {
			continue
		}
		if !strings.HasPrefix(entry.Name, "__substg1.0_") && entry.Name != streamProperties {
			continue
		}
		buf, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", core.ErrParse, entry.Name, err)
		}
		streams[entry.Name] = buf
	}

	return messageFromStreams(streams)
}

// messageFromStreams builds the email from the top-level property streams
func messageFromStreams(streams map[string][]byte) (*core.ParsedEmail, error) {
	if len(streams) == 0 {
		return nil, fmt.Errorf("%w: no message properties found", core.ErrParse)
	}

	email := &core.ParsedEmail{
		Subject: strings.TrimSpace(stringProperty(streams, streamSubjectUnicode, streamSubjectANSI)),
		Body:    stringProperty(streams, streamBodyUnicode, streamBodyANSI),
	}

	if strings.TrimSpace(email.Body) == "" {
		if raw, ok := streams[streamHTMLBinary]; ok {
			email.Body = string(bytes.TrimRight(raw, "\x00"))
		} else {
			email.Body = stringProperty(streams, streamHTMLUnicode, "")
		}
	}

	email.Date = messageTime(streams[streamProperties])
	if email.Date.IsZero() {
		email.Date = headerDate(stringProperty(streams, streamHeadersUnicode, streamHeadersANSI))
	}

	return email, nil
}

// stringProperty decodes the UTF-16 stream, or the ANSI one when absent
func stringProperty(streams map[string][]byte, unicodeName, ansiName string) string {
	if raw, ok := streams[unicodeName]; ok {
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
		if err == nil {
			return strings.TrimRight(string(out), "\x00")
		}
	}
	if ansiName == "" {
		return ""
	}
	if raw, ok := streams[ansiName]; ok {
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err == nil {
			return strings.TrimRight(string(out), "\x00")
		}
		return strings.TrimRight(string(raw), "\x00")
	}
	return ""
}

// messageTime returns the submit time, falling back to the delivery time
func messageTime(props []byte) time.Time {
	if len(props) <= propertiesHeaderSize {
		return time.Time{}
	}

	var submit, delivery time.Time
	for off := propertiesHeaderSize; off+propertyEntrySize <= len(props); off += propertyEntrySize {
		tag := binary.LittleEndian.Uint32(props[off:])
		value := binary.LittleEndian.Uint64(props[off+8:])
		switch tag {
		case tagClientSubmitTime:
			submit = filetime(value)
		case tagMessageDeliveryTime:
			delivery = filetime(value)
		}
	}

	if !submit.IsZero() {
		return submit
	}
	return delivery
}

func filetime(v uint64) time.Time {
	if v <= filetimeEpochDelta {
		return time.Time{}
	}
	return time.Unix(0, int64(v-filetimeEpochDelta)*100).UTC()
}

// headerDate reads the Date header out of the transport headers
func headerDate(headers string) time.Time {
	if headers == "" {
		return time.Time{}
	}
	msg, err := mail.ReadMessage(strings.NewReader(strings.TrimRight(headers, "\r\n") + "\r\n\r\n"))
	if err != nil {
		return time.Time{}
	}
	t, err := msg.Header.Date()
	if err != nil {
		return time.Time{}
	}
	return t
}
