package transport

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
)

// TCPConn frames a stream connection into newline terminated lines.
type TCPConn struct {
	conn    net.Conn
	scanner *bufio.Scanner

	mu     sync.Mutex
	writer *bufio.Writer
}

// NewTCPConn wraps conn. maxLineBytes bounds a single incoming line,
// a longer line fails the read like a broken connection.
func NewTCPConn(conn net.Conn, maxLineBytes int) *TCPConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, min(maxLineBytes, 4096)), maxLineBytes)
	return &TCPConn{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
	}
}

// ReadLine returns the next line without its terminator, a trailing '\r' included.
func (c *TCPConn) ReadLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSuffix(c.scanner.Text(), "\r"), nil
}

func (c *TCPConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *TCPConn) Close() error {
	return c.conn.Close()
}

func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
