package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

const maxEventSize = 1 << 20

type subscription struct {
	feed   *backend.Feed
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Unsubscribe() {
	s.cancel()
	<-s.done
	s.feed.Unsubscribe()
}

// Subscribe follows GET /todos/observe. The stream is re-opened after
// reconnectDelay whenever it ends, until ctx is done or Unsubscribe is
// called. Rejected credentials stop the subscription for good.
func (c *Client) Subscribe(ctx context.Context, onSnapshot func(model.Snapshot)) (backend.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		feed:   backend.NewFeed(onSnapshot),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		for {
			err := c.stream(ctx, s.feed.Publish)
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, backend.ErrUnauthorized) {
				c.log.Error("subscription rejected", "error", err)
				return
			}
			c.log.Warn("subscription interrupted, reconnecting", "error", err, "delay", c.reconnectDelay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.reconnectDelay):
			}
		}
	}()
	return s, nil
}

// stream reads one connection until it ends.
func (c *Client) stream(ctx context.Context, publish func(model.Snapshot)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "todos/observe", nil)
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("observe", resp)
	}
	c.log.Debug("subscription open", "endpoint", c.endpoint("todos/observe"))

	return readEvents(resp.Body, func(ev event) error {
		if ev.name != "" && ev.name != "snapshot" {
			return nil
		}
		var snap model.Snapshot
		if err := json.Unmarshal([]byte(ev.data), &snap); err != nil {
			c.log.Warn("dropping malformed snapshot", "error", err)
			return nil
		}
		publish(snap)
		return nil
	})
}

type event struct {
	name string
	data string
}

// readEvents parses a text/event-stream body and calls fn once per event.
// It returns io.ErrUnexpectedEOF when the server closes the stream.
func readEvents(r io.Reader, fn func(event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxEventSize)

	var (
		ev   event
		data []string
	)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(data) > 0 {
				ev.data = strings.Join(data, "\n")
				if err := fn(ev); err != nil {
					return err
				}
			}
			ev, data = event{}, data[:0]
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}
