package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxDetailLength bounds messages extracted from non-JSON bodies.
const maxDetailLength = 200

// extractDetail pulls a human-readable reason out of an error response body.
// The backend sends {"detail": "..."} or {"detail": [{"msg": "..."}]}, fill
// validation answers {"message": "...", "validation_errors": [...]}, and proxies
// in front of the backend answer with HTML.
func extractDetail(body []byte, contentType string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	if trimmed[0] == '{' {
		var payload struct {
			Detail           json.RawMessage `json:"detail"`
			Message          string          `json:"message"`
			Error            string          `json:"error"`
			ValidationErrors []string        `json:"validation_errors"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if d := detailText(payload.Detail); d != "" {
				return d
			}
			if payload.Message != "" && len(payload.ValidationErrors) > 0 {
				return payload.Message + ": " + strings.Join(payload.ValidationErrors, "; ")
			}
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
	}

	if strings.Contains(contentType, "html") || trimmed[0] == '<' {
		return htmlDetail(trimmed)
	}

	return truncate(string(trimmed))
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// htmlDetail reduces an HTML error page to its title, or its heading, or its body text.
func htmlDetail(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	for _, selector := range []string{"title", "h1", "body"} {
		if text := strings.Join(strings.Fields(doc.Find(selector).First().Text()), " "); text != "" {
			return truncate(text)
		}
	}
	return ""
}

// truncate limits s to maxDetailLength runes.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDetailLength {
		return s
	}
	return string(r[:maxDetailLength-3]) + "..."
}
