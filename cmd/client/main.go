package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syncbridge/domain"
	"syncbridge/infrastructure/transport"
	"syscall"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `envconfig:"CHAT_SERVER_ADDR" default:"localhost:5050"`
	Nick          string `envconfig:"CHAT_NICK" required:"true"`
	// CHAT_COLOURS colours incoming lines by kind
	Colours  bool   `envconfig:"CHAT_COLOURS" default:"true"`
	LogLevel string `envconfig:"CHAT_LOG_LEVEL" default:"WARN"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects, identifies, then relays stdin to the server and server lines to stdout.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	netConn, err := net.Dial("tcp", config.ServerAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	conn := transport.NewTCPConn(netConn, 1<<16)
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if err = conn.WriteLine(domain.Nick(config.Nick).String()); err != nil {
		return exitRuntime, err
	}

	received := make(chan error, 1)
	go func() {
		for {
			line, err := conn.ReadLine()
			if err != nil {
				received <- err
				return
			}
			fmt.Println(render(line, config.Colours))
		}
	}()

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		close(input)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(domain.Command{Type: domain.QuitCommand}.String())
			return exitOK, nil
		case err := <-received:
			log.Info("Server closed the connection", "error", err)
			return exitOK, nil
		case text, ok := <-input:
			if !ok {
				_ = conn.WriteLine(domain.Command{Type: domain.QuitCommand}.String())
				return exitOK, nil
			}
			cmd, ok := toCommand(text)
			if !ok {
				continue
			}
			if err := conn.WriteLine(cmd.String()); err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
			if cmd.Type == domain.QuitCommand {
				return exitOK, nil
			}
		}
	}
}

// toCommand maps a typed line to a protocol command. Slash commands drive the
// non-chat features, anything else is chat text.
func toCommand(text string) (domain.Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Command{}, false
	}
	name, arg, _ := strings.Cut(text, " ")
	switch name {
	case "/quit":
		return domain.Command{Type: domain.QuitCommand}, true
	case "/typing":
		return domain.Command{Type: domain.TypingOnCommand}, true
	case "/stop":
		return domain.Command{Type: domain.TypingOffCommand}, true
	case "/read":
		return domain.Command{Type: domain.ReadCommand}, true
	case "/save":
		return domain.Command{Type: domain.SaveChatCommand, Payload: strings.TrimSpace(arg)}, true
	default:
		return domain.Say(text), true
	}
}

func render(line string, colours bool) string {
	if !colours {
		return line
	}
	switch domain.KindOf(line) {
	case domain.KindSystem:
		return color.Yellow.Render(line)
	case domain.KindTyping:
		return color.Gray.Render(line)
	case domain.KindRead:
		return color.Cyan.Render(line)
	default:
		return color.New(color.FgGreen).Render(line)
	}
}
