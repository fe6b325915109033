package base

import (
	"io"
	"net"
	"time"
)

// readRecord reads exactly len(buf) bytes from the connection.
// It returns the number of bytes read, which is smaller than len(buf) if an error occurred.
func readRecord(conn net.Conn, buf []byte) (int, error) {
	return io.ReadFull(conn, buf)
}

// writeRecord writes the complete record to the connection
func writeRecord(conn net.Conn, data []byte) error {
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// setDeadline sets read and write deadlines if timeout > 0
func setDeadline(conn net.Conn, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	return conn.SetDeadline(time.Now().Add(timeout))
}

// setReadDeadline sets the read deadline if timeout > 0
func setReadDeadline(conn net.Conn, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	return conn.SetReadDeadline(time.Now().Add(timeout))
}

// setWriteDeadline sets the write deadline if timeout > 0
func setWriteDeadline(conn net.Conn, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	return conn.SetWriteDeadline(time.Now().Add(timeout))
}
