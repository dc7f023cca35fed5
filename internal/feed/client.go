package feed

import (
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

const dialTimeout = 500 * time.Millisecond

// Client implements Feed for one schema served by the configuration daemon.
type Client struct {
	socketPath string
	schema     string
	log        *zap.Logger
}

func NewClient(socketPath, schema string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{socketPath: socketPath, schema: schema, log: log}
}

// Probe returns a Client for schema when the daemon at socketPath is
// reachable and reports the schema as installed, and Absent otherwise.
func Probe(socketPath, schema string, log *zap.Logger) Feed {
	c := NewClient(socketPath, schema, log)
	ok, err := c.Installed()
	if err != nil || !ok {
		c.log.Info("configuration schema unavailable",
			zap.String("schema", schema),
			zap.String("socket", socketPath),
			zap.Error(err),
		)
		return Absent{Schema: schema}
	}
	c.log.Info("configuration schema available", zap.String("schema", schema))
	return c
}

func (c *Client) Present() bool { return true }

func (c *Client) withConn(fn func(conn net.Conn) error) error {
	conn, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

func (c *Client) roundTrip(req Request) (Response, error) {
	req.Schema = c.schema
	var resp Response
	err := c.withConn(func(conn net.Conn) error {
		if err := json.NewEncoder(conn).Encode(&req); err != nil {
			return err
		}
		if err := json.NewDecoder(conn).Decode(&resp); err != nil {
			return err
		}
		if !resp.OK {
			return responseError(resp.Error)
		}
		return nil
	})
	return resp, err
}

func responseError(msg string) error {
	if msg == ErrNotInstalled.Error() {
		return ErrNotInstalled
	}
	return errors.New(msg)
}

// Installed asks the daemon whether the schema exists.
func (c *Client) Installed() (bool, error) {
	resp, err := c.roundTrip(Request{Op: "has"})
	if err != nil {
		return false, err
	}
	return resp.Found, nil
}

func (c *Client) Get(key string) (string, bool) {
	resp, err := c.roundTrip(Request{Op: "get", Key: key})
	if err != nil {
		c.log.Warn("feed get failed", zap.String("schema", c.schema), zap.String("key", key), zap.Error(err))
		return "", false
	}
	return resp.Value, resp.Found
}

func (c *Client) Set(key, value string) error {
	_, err := c.roundTrip(Request{Op: "set", Key: key, Value: value})
	return err
}

func (c *Client) List() ([]string, error) {
	resp, err := c.roundTrip(Request{Op: "list"})
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// Subscribe opens a watch stream and delivers events on a background
// goroutine until cancel is called or the daemon closes the stream.
func (c *Client) Subscribe(h Handler) (cancel func()) {
	conn, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		c.log.Warn("feed subscribe failed", zap.String("schema", c.schema), zap.Error(err))
		return func() {}
	}
	dec := json.NewDecoder(conn)
	var ack Response
	if err := json.NewEncoder(conn).Encode(Request{Op: "watch", Schema: c.schema}); err == nil {
		err = dec.Decode(&ack)
	}
	if err != nil || !ack.OK {
		_ = conn.Close()
		if err == nil {
			err = responseError(ack.Error)
		}
		c.log.Warn("feed subscribe failed", zap.String("schema", c.schema), zap.Error(err))
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ev Event
			if err := dec.Decode(&ev); err != nil {
				return
			}
			h(ev.Key, ev.Value)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = conn.Close()
			<-done
		})
	}
}
