package models

import "time"

// Message is one anonymous secret as stored. Text is already HTML-escaped.
type Message struct {
	MessageID string    `json:"message_id" bson:"message_id"`
	Text      string    `json:"text" bson:"text"`
	Sender    string    `json:"sender" bson:"sender"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
