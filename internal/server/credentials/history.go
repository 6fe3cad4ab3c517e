package credentials

import (
	"encoding/base64"
	"strings"
)

// EncodeHistory serializes encoded passwords, most recent first, into the
// stored rotation blob: comma separated base64 tokens without padding.
// Tokens are appended while the blob stays within maxLen; the first token
// that would overflow ends the list. Blank entries are not stored.
// maxLen <= 0 means no budget.
func EncodeHistory(list []string, maxLen int) string {
	var sb strings.Builder
	for _, p := range list {
		if p == "" {
			continue
		}
		tok := base64.RawStdEncoding.EncodeToString([]byte(p))

		size := len(tok)
		if sb.Len() > 0 {
			size++
		}
		if maxLen > 0 && sb.Len()+size > maxLen {
			break
		}

		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

// DecodeHistory is the inverse of EncodeHistory. Blank or undecodable
// tokens are dropped.
func DecodeHistory(blob string) []string {
	if strings.TrimSpace(blob) == "" {
		return nil
	}

	var out []string
	for _, tok := range strings.Split(blob, ",") {
		tok = strings.TrimRight(strings.TrimSpace(tok), "=")
		if tok == "" {
			continue
		}
		b, err := base64.RawStdEncoding.DecodeString(tok)
		if err != nil || len(b) == 0 {
			continue
		}
		out = append(out, string(b))
	}
	return out
}
