package models

// ChatMessage is a single entry in an event's chat log.
//
// The Time field is informational, formatted to second precision; the
// position in the stored log is what defines ordering.
type ChatMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// MessageTimeLayout formats message timestamps to second precision.
const MessageTimeLayout = "2006-01-02 15:04:05"
