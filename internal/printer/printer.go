// Package printer отправляет готовый ESC/POS-поток на сетевой термопринтер (RAW, порт 9100).
package printer

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultTimeout ограничивает подключение и запись чека.
	DefaultTimeout = 10 * time.Second
	// DefaultProbeTimeout ограничивает проверку доступности принтера.
	DefaultProbeTimeout = 5 * time.Second
)

// Error описывает сбой обмена с принтером.
type Error struct {
	Op   string
	Addr string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("printer %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config — адрес принтера и таймауты.
type Config struct {
	Host         string
	Port         int
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

// Client — клиент принтера. Одна попытка на вызов, без повторов.
type Client struct {
	addr         string
	timeout      time.Duration
	probeTimeout time.Duration
	dialer       net.Dialer
}

// New создаёт клиента; нулевые таймауты заменяются значениями по умолчанию.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	return &Client{
		addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		timeout:      cfg.Timeout,
		probeTimeout: cfg.ProbeTimeout,
	}
}

// Addr возвращает host:port принтера.
func (c *Client) Addr() string {
	return c.addr
}

// Send подключается к принтеру, записывает data целиком и закрывает соединение.
func (c *Client) Send(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return &Error{Op: "dial", Addr: c.addr, Err: err}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return &Error{Op: "deadline", Addr: c.addr, Err: err}
		}
	}

	n, err := conn.Write(data)
	if err != nil {
		return &Error{Op: "write", Addr: c.addr, Err: err}
	}
	if n < len(data) {
		return &Error{Op: "write", Addr: c.addr, Err: io.ErrShortWrite}
	}

	if err := conn.Close(); err != nil {
		return &Error{Op: "close", Addr: c.addr, Err: err}
	}
	return nil
}

// Probe проверяет, что принтер принимает TCP-подключения.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return &Error{Op: "probe", Addr: c.addr, Err: err}
	}
	return conn.Close()
}
