package main

import (
	"syncbridge/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: "hello there", expected: "MSG:hello there", ok: true},
		{input: "  /quit ", expected: "QUIT", ok: true},
		{input: "/typing", expected: "TYPING_ON", ok: true},
		{input: "/stop", expected: "TYPING_OFF", ok: true},
		{input: "/read", expected: "READ", ok: true},
		{input: "/save  chat.txt", expected: "SAVE_CHAT:chat.txt", ok: true},
		{input: "   ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req := require.New(t)
			cmd, ok := toCommand(tt.input)
			req.Equal(tt.ok, ok)
			if ok {
				req.Equal(tt.expected, cmd.String())
			}
		})
	}
}

func TestRender(t *testing.T) {
	req := require.New(t)
	line := domain.JoinedLine("alice")

	req.Equal(line, render(line, false))
	req.Contains(render(line, true), line)
}
