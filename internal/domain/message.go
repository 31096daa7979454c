package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// NoMessagesPlaceholder se usa cuando no hay texto extraíble del último mensaje.
const NoMessagesPlaceholder = "No messages"

// PartKind etiqueta cada fragmento de un mensaje.
type PartKind string

const (
	PartText PartKind = "text"
	// PartOpaque marca elementos que no son un fragmento etiquetado bien formado.
	PartOpaque PartKind = ""
)

// ErrInvalidParts indica que el payload de partes no se pudo decodificar.
var ErrInvalidParts = errors.New("invalid content parts")

// Message es inmutable una vez creado.
type Message struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chatId"`
	Role      string          `json:"role"`
	Parts     json.RawMessage `json:"parts"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ContentPart es un fragmento tipado. Text solo aplica a PartText; el resto
// de variantes conserva su payload original.
type ContentPart struct {
	Kind    PartKind
	Text    string
	Payload json.RawMessage
}

// DecodeParts decodifica la lista ordenada de partes. Acepta también la forma
// legada donde el arreglo viene serializado como string JSON. Solo falla si el
// payload no es un arreglo; los elementos mal formados quedan como PartOpaque,
// igual que en chat_message_text.
func DecodeParts(raw []byte) ([]ContentPart, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidParts)
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParts, err)
		}
		return DecodeParts([]byte(inner))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParts, err)
	}

	parts := make([]ContentPart, 0, len(items))
	for _, item := range items {
		parts = append(parts, decodePart(item))
	}
	return parts, nil
}

func decodePart(item json.RawMessage) ContentPart {
	opaque := ContentPart{Kind: PartOpaque, Payload: item}
	var tagged struct {
		Type *string         `json:"type"`
		Text json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(item, &tagged); err != nil || tagged.Type == nil || *tagged.Type == "" {
		return opaque
	}
	part := ContentPart{Kind: PartKind(*tagged.Type), Payload: item}
	if part.Kind == PartText {
		if len(tagged.Text) == 0 || json.Unmarshal(tagged.Text, &part.Text) != nil {
			return opaque
		}
	}
	return part
}

// ValidateParts exige que cada elemento sea un fragmento etiquetado válido.
// Se usa al escribir; la lectura tolera elementos opacos.
func ValidateParts(raw []byte) error {
	parts, err := DecodeParts(raw)
	if err != nil {
		return err
	}
	for i, p := range parts {
		if p.Kind == PartOpaque {
			return fmt.Errorf("%w: part %d is malformed", ErrInvalidParts, i)
		}
	}
	return nil
}

// FirstText devuelve el texto del primer fragmento "text".
func FirstText(parts []ContentPart) (string, bool) {
	for _, p := range parts {
		if p.Kind == PartText {
			return p.Text, true
		}
	}
	return "", false
}

// ExtractText devuelve el texto del primer fragmento "text" del payload crudo.
func ExtractText(raw []byte) (string, error) {
	parts, err := DecodeParts(raw)
	if err != nil {
		return "", err
	}
	text, ok := FirstText(parts)
	if !ok {
		return "", fmt.Errorf("%w: no text part", ErrInvalidParts)
	}
	return text, nil
}

// LastMessageSummary nunca falla: cualquier problema se degrada al placeholder.
func LastMessageSummary(raw []byte) string {
	text, err := ExtractText(raw)
	if err != nil || text == "" {
		return NoMessagesPlaceholder
	}
	return text
}

// TextParts arma el payload de un mensaje de una sola parte de texto.
func TextParts(text string) json.RawMessage {
	b, _ := json.Marshal([]map[string]string{{"type": string(PartText), "text": text}})
	return b
}
