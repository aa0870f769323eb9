package content

import (
	"encoding/base64"
	"strings"

	"github.com/h2non/filetype"
)

// filetype needs at most 262 bytes of header; 352 base64 chars decode to 264.
const sniffChars = 352

// DisplayName returns name as given, or "Anonymous" if it is empty.
func DisplayName(name string) string {
	if name == "" {
		return "Anonymous"
	}
	return name
}

// SniffMIME guesses the MIME type of a file payload. The payload may be a
// data URL or bare base64. It returns "" when the type cannot be determined.
// The payload is never modified or validated.
func SniffMIME(payload string) string {
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return ""
		}
		payload = data
	}

	if len(payload) > sniffChars {
		payload = payload[:sniffChars]
	} else {
		payload = payload[:len(payload)-len(payload)%4]
	}

	head, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(head) == 0 {
		return ""
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
