package runtime_test

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"syncbridge/domain"
	"syncbridge/runtime"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const readWait = 2 * time.Second

type client struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func startServer(t *testing.T, opts ...runtime.HubOption) (*runtime.Hub, string) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := runtime.NewHub(log, nil, 256, opts...)
	listener := runtime.NewListener(log, hub, "127.0.0.1:0", 65536)
	require.NoError(t, listener.Bind())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
		require.NoError(t, hub.Shutdown(2*time.Second))
	})
	return hub, listener.Addr().String()
}

func dial(t *testing.T, address string) *client {
	conn, err := net.Dial("tcp", address)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &client{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

// join identifies and consumes the welcome line.
func join(t *testing.T, address, nick string) *client {
	c := dial(t, address)
	c.send("NICK:" + nick)
	c.expect(domain.WelcomeLine(nick))
	return c
}

func (c *client) send(line string) {
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

func (c *client) read() (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	line, err := c.reader.ReadString('\n')
	return strings.TrimSuffix(line, "\n"), err
}

func (c *client) expect(lines ...string) {
	for _, want := range lines {
		got, err := c.read()
		require.NoError(c.t, err, "waiting for %q", want)
		require.Equal(c.t, want, got)
	}
}

func (c *client) expectClosed() {
	_, err := c.read()
	require.Error(c.t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		require.False(c.t, netErr.Timeout(), "connection still open")
	}
}

func (c *client) expectSilence() {
	_ = c.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	line, err := c.reader.ReadString('\n')
	require.Error(c.t, err, "unexpected line %q", line)
}

func TestServer_JoinWithEmptyHistory(t *testing.T) {
	req := require.New(t)
	hub, address := startServer(t)

	// When alice joins an empty server
	alice := join(t, address, "alice")

	// Then she only gets her welcome, which is not recorded
	alice.expectSilence()
	req.Equal([]string{"[system] alice has connected successfully."}, hub.History().Lines())
	req.True(hub.Registry().Contains("alice"))
}

func TestServer_LateJoinerGetsFullReplay(t *testing.T) {
	req := require.New(t)
	hub, address := startServer(t)
	hub.Announce(domain.StartupLine(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	// Given alice and bob chatting
	alice := join(t, address, "alice")
	alice.expect("[system] Server started at 2026-01-02 03:04:05")
	bob := join(t, address, "bob")
	bob.expect(
		"[system] Server started at 2026-01-02 03:04:05",
		"[system] alice has connected successfully.",
	)
	alice.expect("[system] bob has connected successfully.")
	alice.send("MSG:hello")
	bob.expect("alice: hello")

	// When carol joins late
	carol := join(t, address, "carol")

	// Then she receives the whole history in order before any live line
	carol.expect(
		"[system] Server started at 2026-01-02 03:04:05",
		"[system] alice has connected successfully.",
		"[system] bob has connected successfully.",
		"alice: hello",
	)
	alice.expect("[system] carol has connected successfully.")
	bob.expect("[system] carol has connected successfully.")
	req.Equal(5, hub.History().Len())
}

func TestServer_SenderIsExcludedFromOwnMessage(t *testing.T) {
	_, address := startServer(t)
	alice := join(t, address, "alice")
	bob := join(t, address, "bob")
	bob.expect("[system] alice has connected successfully.")
	alice.expect("[system] bob has connected successfully.")

	// When alice chats then reads
	alice.send("MSG:  hi bob  ")
	alice.send("READ")

	// Then bob sees both lines, alice only the read receipt
	bob.expect("alice: hi bob", "[read] alice has read the messages.")
	alice.expect("[read] alice has read the messages.")
}

func TestServer_DuplicateNicknameRejected(t *testing.T) {
	req := require.New(t)
	hub, address := startServer(t)
	alice := join(t, address, "alice")

	// When a second session claims alice
	impostor := dial(t, address)
	impostor.send("NICK:alice")

	// Then it is told so and disconnected, the first alice is untouched
	impostor.expect(domain.RejectedLine())
	impostor.expectClosed()
	alice.expectSilence()
	req.Equal(1, hub.Registry().Len())
	req.Equal(1, hub.History().Len())
}

func TestServer_AbruptDisconnectReleasesIdentity(t *testing.T) {
	req := require.New(t)
	hub, address := startServer(t)
	alice := join(t, address, "alice")
	bob := join(t, address, "bob")
	bob.expect("[system] alice has connected successfully.")
	alice.expect("[system] bob has connected successfully.")

	// When bob's connection drops without QUIT
	req.NoError(bob.conn.Close())

	// Then alice is told and the identity can be claimed again
	alice.expect("[system] bob was kicked out of server.")
	req.Eventually(func() bool { return !hub.Registry().Contains("bob") }, readWait, 10*time.Millisecond)

	again := join(t, address, "bob")
	again.expect(
		"[system] alice has connected successfully.",
		"[system] bob has connected successfully.",
		"[system] bob was kicked out of server.",
	)
	alice.expect("[system] bob has connected successfully.")
}

func TestServer_QuitIsCaseInsensitive(t *testing.T) {
	_, address := startServer(t)
	alice := join(t, address, "alice")
	bob := join(t, address, "bob")
	bob.expect("[system] alice has connected successfully.")
	alice.expect("[system] bob has connected successfully.")

	bob.send("quit")

	bob.expectClosed()
	alice.expect("[system] bob was kicked out of server.")
}

func TestServer_TypingAndSaveChat(t *testing.T) {
	req := require.New(t)
	hub, address := startServer(t)
	alice := join(t, address, "alice")
	bob := join(t, address, "bob")
	bob.expect("[system] alice has connected successfully.")
	alice.expect("[system] bob has connected successfully.")

	alice.send("TYPING_ON")
	alice.send("TYPING_OFF")
	alice.send("SAVE_CHAT:chat.txt")

	bob.expect(
		"[typing] alice is typing...",
		"[typing] alice has stopped typing.",
		"[system] alice saved the chat locally as: chat.txt",
	)
	alice.expect("[system] alice saved the chat locally as: chat.txt")
	req.Equal(5, hub.History().Len())
}

func TestServer_IgnoredLines(t *testing.T) {
	req := require.New(t)
	hub, address := startServer(t)
	alice := join(t, address, "alice")
	bob := join(t, address, "bob")
	bob.expect("[system] alice has connected successfully.")
	alice.expect("[system] bob has connected successfully.")

	// When alice sends an empty chat and an unknown command
	alice.send("MSG:   ")
	alice.send("DANCE")
	alice.send("NICK:alicia")
	alice.send("MSG:still here\r")

	// Then only the real message is broadcast
	bob.expect("alice: still here")
	req.Equal(3, hub.History().Len())
}

func TestServer_ProtocolViolationClosesSilently(t *testing.T) {
	req := require.New(t)
	hub, address := startServer(t)

	// When the first line is not an identity announcement
	stranger := dial(t, address)
	stranger.send("MSG:hello")

	// Then the connection is closed without any notice
	stranger.expectClosed()
	req.Zero(hub.History().Len())
	req.Zero(hub.Registry().Len())
}

func TestServer_EmptyNicknameRejected(t *testing.T) {
	req := require.New(t)
	hub, address := startServer(t)

	blank := dial(t, address)
	blank.send("NICK:   ")

	blank.expect(domain.RejectedLine())
	blank.expectClosed()
	req.Zero(hub.Registry().Len())
}

func TestServer_ShutdownClosesSessions(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := runtime.NewHub(log, nil, 256)
	listener := runtime.NewListener(log, hub, "127.0.0.1:0", 65536)
	req.NoError(listener.Bind())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	alice := join(t, listener.Addr().String(), "alice")
	req.Eventually(func() bool { return hub.Live() == 1 }, readWait, 10*time.Millisecond)

	// When the server shuts down
	cancel()
	req.NoError(<-done)
	req.NoError(hub.Shutdown(2 * time.Second))

	// Then the client is disconnected and nothing is left running
	alice.expectClosed()
	req.Zero(hub.Live())
	req.Zero(hub.Registry().Len())
}

func TestServer_ReadThenQuitDeliversOwnReceipt(t *testing.T) {
	_, address := startServer(t)
	alice := join(t, address, "alice")
	bob := join(t, address, "bob")
	alice.expect("[system] bob has connected successfully.")

	// When alice marks the chat read and quits in the same write
	alice.send("READ\nQUIT")

	// Then her own receipt reaches her before the connection closes
	alice.expect(domain.ReadReceiptLine("alice"))
	alice.expectClosed()
	bob.expect(domain.ReadReceiptLine("alice"), domain.DepartedLine("alice"))
}

func TestServer_HalfCloseStillGetsWelcomeAndReplay(t *testing.T) {
	hub, address := startServer(t)
	hub.Announce(domain.StartupLine(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	carol := dial(t, address)

	// Given a client that sends everything then closes its sending side
	carol.send("NICK:carol\nREAD")
	require.NoError(t, carol.conn.(*net.TCPConn).CloseWrite())

	// Then the welcome, the replay and its receipt are all written before the close
	carol.expect(
		domain.WelcomeLine("carol"),
		"[system] Server started at 2026-01-02 03:04:05",
		domain.ReadReceiptLine("carol"),
	)
	carol.expectClosed()
}
