package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"fences-bot/contract"
	"fences-bot/runtime"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gookit/color"
)

// console is a line-oriented development transport. It feeds events
// into the router and doubles as the delivery side for broadcasts.
//
//	/as <username> <address>   switch the acting user
//	!<action>                  send a structured action
//	/file <path> [caption]     send an attachment
//	<n>                        pick the n-th offered choice
//	anything else              send a text event
type console struct {
	log     *slog.Logger
	actor   string
	address int64
	choices []contract.Choice
}

func newConsole(log *slog.Logger) *console {
	return &console{log: log, actor: "console", address: 1}
}

func (c *console) loop(ctx context.Context, router *runtime.Router) {
	scanner := bufio.NewScanner(os.Stdin)
	color.Cyan.Println("Console transport ready. /as <username> <address> to switch user.")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ev, ok := c.parse(line)
		if !ok {
			continue
		}
		c.render(router.HandleEvent(ctx, ev))
	}
	if err := scanner.Err(); err != nil {
		c.log.Error("Console input failed", "err", err)
	}
}

func (c *console) parse(line string) (contract.Event, bool) {
	base := contract.Event{Sender: c.actor, Address: c.address}

	switch {
	case strings.HasPrefix(line, "/as "):
		fields := strings.Fields(line)
		if len(fields) < 2 {
			color.Red.Println("usage: /as <username> [address]")
			return contract.Event{}, false
		}
		c.actor = fields[1]
		if len(fields) > 2 {
			if addr, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
				c.address = addr
			}
		}
		color.Yellow.Printf("Now acting as @%s (address %d)\n", c.actor, c.address)
		return contract.Event{}, false

	case strings.HasPrefix(line, "/file "):
		fields := strings.SplitN(strings.TrimPrefix(line, "/file "), " ", 2)
		ev := base
		ev.Kind = contract.EventAttachment
		ev.FileRef = fields[0]
		if len(fields) > 1 {
			ev.Caption = fields[1]
		}
		if mime, err := mimetype.DetectFile(fields[0]); err == nil {
			ev.Mime = mime.String()
		}
		return ev, true

	case strings.HasPrefix(line, "!"):
		ev := base
		ev.Kind = contract.EventAction
		ev.Action = strings.TrimPrefix(line, "!")
		return ev, true
	}

	// A bare number picks one of the last offered choices.
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(c.choices) {
		ev := base
		ev.Kind = contract.EventAction
		ev.Action = c.choices[n-1].Action
		return ev, true
	}

	ev := base
	ev.Kind = contract.EventText
	ev.Text = line
	return ev, true
}

func (c *console) render(resp contract.Response) {
	color.Green.Println(resp.Text)
	c.choices = resp.Choices
	for i, choice := range resp.Choices {
		color.Gray.Printf("  %d. %s\n", i+1, choice.Label)
	}
}

// DeliverText implements contract.Transport for broadcasts.
func (c *console) DeliverText(_ context.Context, address int64, text string) error {
	color.Magenta.Printf("[-> %d] %s\n", address, text)
	return nil
}

// DeliverAttachment implements contract.Transport for broadcasts.
func (c *console) DeliverAttachment(_ context.Context, address int64, fileRef, caption string) error {
	if _, err := os.Stat(fileRef); err != nil {
		return fmt.Errorf("attachment %q: %w", fileRef, err)
	}
	color.Magenta.Printf("[-> %d] attachment %s %s\n", address, fileRef, caption)
	return nil
}
