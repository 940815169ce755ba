package gmail

import (
	"encoding/base64"
	"strings"

	"mailgenie/internal/model"
)

type messageHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type messageBody struct {
	Data string `json:"data"`
}

type messagePart struct {
	MimeType string       `json:"mimeType"`
	Body     messageBody  `json:"body"`
	Parts    []messagePart `json:"parts"`
}

type messagePayload struct {
	Headers []messageHeader `json:"headers"`
	Body    messageBody     `json:"body"`
	Parts   []messagePart   `json:"parts"`
}

type rawMessage struct {
	ID       string         `json:"id"`
	ThreadID string         `json:"threadId"`
	Snippet  string         `json:"snippet"`
	Payload  messagePayload `json:"payload"`
}

func header(headers []messageHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	// Payloads arrive both with and without padding.
	decoded, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(data)
	}
	if err != nil {
		return ""
	}
	return string(decoded)
}

// textPart walks the MIME tree for the first text/plain part with content.
func textPart(parts []messagePart) string {
	for _, part := range parts {
		if part.MimeType == "text/plain" && part.Body.Data != "" {
			if body := decodeBody(part.Body.Data); body != "" {
				return body
			}
		}
	}
	for _, part := range parts {
		if body := textPart(part.Parts); body != "" {
			return body
		}
	}
	return ""
}

// parseMessage extracts the fields the engine needs. When no plain-text
// body exists the snippet stands in for it.
func parseMessage(msg *rawMessage) model.Email {
	body := decodeBody(msg.Payload.Body.Data)
	if body == "" {
		body = textPart(msg.Payload.Parts)
	}
	if body == "" {
		body = msg.Snippet
	}

	return model.Email{
		From:    header(msg.Payload.Headers, "From"),
		Subject: header(msg.Payload.Headers, "Subject"),
		Body:    body,
		Snippet: msg.Snippet,
	}
}
