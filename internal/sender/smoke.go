package sender

import (
	"context"
	"fmt"
	"io"
	"time"
)

// SendAll posts every canned payload in order and reports how many were
// accepted. It keeps going after a failure.
func SendAll(ctx context.Context, c *Client, out io.Writer) (int, error) {
	var (
		ok      int
		lastErr error
	)
	for _, kind := range EventKinds {
		if err := SendOne(ctx, c, kind, out); err != nil {
			lastErr = err
			continue
		}
		ok++
	}
	return ok, lastErr
}

// SendOne posts one canned payload and prints the outcome.
func SendOne(ctx context.Context, c *Client, kind string, out io.Writer) error {
	p, err := Payload(kind, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "sending %s for %v\n", kind, p["entityFQN"])

	resp, err := c.Send(ctx, p)
	if err != nil {
		fmt.Fprintf(out, "  failed: %v\n", err)
		return fmt.Errorf("send %s: %w", kind, err)
	}
	fmt.Fprintf(out, "  %s: event_id=%s duplicate=%t\n", resp.Status, resp.EventID, resp.Duplicate)
	return nil
}

// PrintEvents lists the most recent stored events.
func PrintEvents(ctx context.Context, c *Client, limit int, out io.Writer) error {
	list, err := c.Events(ctx, "", "", limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "stored events: %d\n", list.Count)
	for _, ev := range list.Events {
		fmt.Fprintf(out, "  - %s: %s\n    time: %s\n    user: %s\n",
			ev.EventType, deref(ev.EntityFQN), ev.EventTime.Format(time.RFC3339), deref(ev.UpdatedBy))
	}
	return nil
}

// Smoke checks health, sends every canned event and lists what was stored.
func Smoke(ctx context.Context, c *Client, out io.Writer) error {
	hs, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	fmt.Fprintf(out, "service %s, database %s\n", hs.Status, hs.Database)

	sent, err := SendAll(ctx, c, out)
	fmt.Fprintf(out, "sent %d/%d\n", sent, len(EventKinds))
	if err != nil {
		return err
	}
	return PrintEvents(ctx, c, 5, out)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
