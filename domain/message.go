// Package domain contains core concepts of the chat system.
// This file defines the server lines fanned out to sessions and the
// history entries they are recorded as.
// Entries are immutable once appended.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindChat   Kind = "chat"
	KindSystem Kind = "system"
	KindTyping Kind = "typing"
	KindRead   Kind = "read"
)

const (
	systemTag = "[system] "
	typingTag = "[typing] "
	readTag   = "[read] "

	startupLayout = "2006-01-02 15:04:05"
)

// Entry is one line of the history log.
// Seq starts at 1 and follows the order in which lines were broadcast.
type Entry struct {
	ID   uuid.UUID
	Seq  uint64
	Kind Kind
	Line string
	At   time.Time
}

func NewEntry(line string, at time.Time) Entry {
	return Entry{
		ID:   uuid.New(),
		Kind: KindOf(line),
		Line: line,
		At:   at,
	}
}

// KindOf classifies a server line by its tag. Untagged lines are chat.
func KindOf(line string) Kind {
	switch {
	case strings.HasPrefix(line, systemTag):
		return KindSystem
	case strings.HasPrefix(line, typingTag):
		return KindTyping
	case strings.HasPrefix(line, readTag):
		return KindRead
	default:
		return KindChat
	}
}

func ChatLine(identity, text string) string {
	return identity + ": " + text
}

func WelcomeLine(identity string) string {
	return fmt.Sprintf("%sWelcome, %s!", systemTag, identity)
}

func RejectedLine() string {
	return systemTag + "Nickname not allowed."
}

func JoinedLine(identity string) string {
	return fmt.Sprintf("%s%s has connected successfully.", systemTag, identity)
}

// DepartedLine is used for every departure, voluntary or not.
func DepartedLine(identity string) string {
	return fmt.Sprintf("%s%s was kicked out of server.", systemTag, identity)
}

func TypingStartedLine(identity string) string {
	return fmt.Sprintf("%s%s is typing...", typingTag, identity)
}

func TypingStoppedLine(identity string) string {
	return fmt.Sprintf("%s%s has stopped typing.", typingTag, identity)
}

func ReadReceiptLine(identity string) string {
	return fmt.Sprintf("%s%s has read the messages.", readTag, identity)
}

func SavedLine(identity, filename string) string {
	return fmt.Sprintf("%s%s saved the chat locally as: %s", systemTag, identity, filename)
}

func StartupLine(at time.Time) string {
	return systemTag + "Server started at " + at.Format(startupLayout)
}

// NormalizeIdentity trims the announced nickname. An empty result is not a valid identity.
func NormalizeIdentity(raw string) (string, bool) {
	identity := strings.TrimSpace(raw)
	return identity, identity != ""
}
