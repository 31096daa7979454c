package domain

import "time"

// Visibility controla quién puede ver un chat.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Valid indica si el valor es uno de los conocidos.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Thread es una conversación (chat) de un usuario.
type Thread struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	CreatedAt  time.Time  `json:"createdAt"`
	Visibility Visibility `json:"visibility"`
	UserID     string     `json:"userId"`
}

// SearchResult es la proyección de un Thread con datos derivados de sus mensajes.
type SearchResult struct {
	Thread
	MessageCount  int        `json:"messageCount"`
	LastMessage   string     `json:"lastMessage"`
	LastMessageAt *time.Time `json:"lastMessageAt"`
	Relevance     int        `json:"relevance"`
}
