package domain

import (
	"strings"
)

type CommandType int

const (
	UnknownCommand CommandType = iota
	NickCommand
	MessageCommand
	TypingOnCommand
	TypingOffCommand
	ReadCommand
	SaveChatCommand
	QuitCommand
)

const (
	nickPrefix     = "NICK:"
	messagePrefix  = "MSG:"
	saveChatPrefix = "SAVE_CHAT:"
	typingOn       = "TYPING_ON"
	typingOff      = "TYPING_OFF"
	read           = "READ"
	quit           = "QUIT"
)

func (c CommandType) String() string {
	switch c {
	case NickCommand:
		return "nick"
	case MessageCommand:
		return "message"
	case TypingOnCommand:
		return "typing_on"
	case TypingOffCommand:
		return "typing_off"
	case ReadCommand:
		return "read"
	case SaveChatCommand:
		return "save_chat"
	case QuitCommand:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is one decoded protocol line.
// Payload is already trimmed and only set for NICK, MSG and SAVE_CHAT.
type Command struct {
	Type    CommandType
	Payload string
}

// ParseCommand decodes a single inbound line. It never fails:
// anything it does not recognise comes back as UnknownCommand.
func ParseCommand(line string) Command {
	line = strings.TrimSuffix(line, "\r")
	switch {
	case strings.EqualFold(line, quit):
		return Command{Type: QuitCommand}
	case strings.HasPrefix(line, nickPrefix):
		return Command{Type: NickCommand, Payload: strings.TrimSpace(line[len(nickPrefix):])}
	case strings.HasPrefix(line, messagePrefix):
		return Command{Type: MessageCommand, Payload: strings.TrimSpace(line[len(messagePrefix):])}
	case line == typingOn:
		return Command{Type: TypingOnCommand}
	case line == typingOff:
		return Command{Type: TypingOffCommand}
	case line == read:
		return Command{Type: ReadCommand}
	case strings.HasPrefix(line, saveChatPrefix):
		return Command{Type: SaveChatCommand, Payload: strings.TrimSpace(line[len(saveChatPrefix):])}
	}
	return Command{Type: UnknownCommand}
}

// String encodes the command back to its wire form, without the trailing newline.
func (c Command) String() string {
	switch c.Type {
	case NickCommand:
		return nickPrefix + c.Payload
	case MessageCommand:
		return messagePrefix + c.Payload
	case TypingOnCommand:
		return typingOn
	case TypingOffCommand:
		return typingOff
	case ReadCommand:
		return read
	case SaveChatCommand:
		return saveChatPrefix + c.Payload
	case QuitCommand:
		return quit
	default:
		return c.Payload
	}
}

func Nick(identity string) Command {
	return Command{Type: NickCommand, Payload: identity}
}

func Say(text string) Command {
	return Command{Type: MessageCommand, Payload: text}
}
