package e2e

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseChatSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" {
		s.T().Skip("CHAT_ADDR is not set, no server to test against")
	}
}

func (s *BaseChatSuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// ChatClient is a raw line client, it speaks the wire protocol directly.
type ChatClient struct {
	s       *BaseChatSuite
	name    string
	conn    net.Conn
	scanner *bufio.Scanner
}

// Dial opens a connection without identifying.
func (s *BaseChatSuite) Dial(name string) *ChatClient {
	s.header(s.T(), "Dial "+name)
	conn, err := net.DialTimeout("tcp", s.Config.ChatAddr, s.Config.Timeout)
	s.Require().NoError(err, "Failed to connect to chat server at "+s.Config.ChatAddr)
	s.T().Cleanup(func() { _ = conn.Close() })
	return &ChatClient{s: s, name: name, conn: conn, scanner: bufio.NewScanner(conn)}
}

// Join dials, identifies and consumes the welcome line.
// The replay that follows depends on what the server already recorded.
func (s *BaseChatSuite) Join(nick string) *ChatClient {
	c := s.Dial(nick)
	c.Send("NICK:" + nick)
	c.Expect(fmt.Sprintf("[system] Welcome, %s!", nick))
	return c
}

func (c *ChatClient) Send(line string) {
	c.s.T().Logf("%s >> %s", c.name, line)
	_, err := c.conn.Write([]byte(line + "\n"))
	c.s.Require().NoError(err)
}

func (c *ChatClient) Read() (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.s.Config.Timeout))
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("connection closed")
	}
	line := strings.TrimSuffix(c.scanner.Text(), "\r")
	c.s.T().Logf("%s << %s", c.name, line)
	return line, nil
}

func (c *ChatClient) Expect(line string) {
	got, err := c.Read()
	c.s.Require().NoError(err, "waiting for %q", line)
	c.s.Require().Equal(line, got)
}

// ExpectEventually skips lines until the expected one shows up.
func (c *ChatClient) ExpectEventually(line string) {
	for {
		got, err := c.Read()
		c.s.Require().NoError(err, "waiting for %q", line)
		if got == line {
			return
		}
	}
}

func (c *ChatClient) ExpectClosed() {
	for {
		if _, err := c.Read(); err != nil {
			c.s.Require().NotContains(err.Error(), "timeout")
			return
		}
	}
}

// WithHealth provides a health client within a contextual test step.
func (s *BaseChatSuite) WithHealth(name string, fn func(ctx context.Context, client grpc_health_v1.HealthClient)) {
	if s.Config.HealthAddr == "" {
		s.T().Skip("GRPC_HEALTH_ADDR is not set")
	}
	conn := s.grpcConn(s.T(), name, s.Config.HealthAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Timeout)
	defer cancel()
	fn(ctx, grpc_health_v1.NewHealthClient(conn))
}

// grpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseChatSuite) grpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	s.header(t, name)

	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}
