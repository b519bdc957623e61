// Package store persists named weft documents and chat transcripts.
package store

import "time"

// Turn is one message in a conversation transcript.
type Turn struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// Store is the persistence interface shared by the memory and SQLite
// implementations.
type Store interface {
	// SaveDocument stores a named template document, overwriting any
	// previous body.
	SaveDocument(name, body string) error
	// Document retrieves a document body. Absence is not an error;
	// it returns ok == false.
	Document(name string) (body string, ok bool, err error)
	// Documents lists stored document names.
	Documents() ([]string, error)
	// DeleteDocument removes a document.
	DeleteDocument(name string) error
	// AppendTurn appends a message to a conversation and returns the
	// stored turn (with its generated id and timestamp).
	AppendTurn(conversationID, role, content string) (Turn, error)
	// Turns returns a conversation's messages in insertion order.
	Turns(conversationID string) ([]Turn, error)
	// Close releases resources.
	Close() error
}
