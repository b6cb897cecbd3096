package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rickgao/easybook-chat/internal/connection"
	"github.com/rickgao/easybook-chat/internal/session"
)

// errQuit ends the session without reporting a failure.
var errQuit = errors.New("quit")

const micMessage = "🎤 Voice input feature coming soon! Stay tuned for updates."

// quickPrompts are the canned questions behind the quick-action buttons.
var quickPrompts = map[string]string{
	"movies":   "Show me the movies playing now",
	"theaters": "Which theaters are in my city?",
	"timings":  "What are today's show timings?",
}

const helpText = `Commands:
  /new             start a new chat
  /history         list saved chats
  /load N          switch to chat N and replay it
  /quick NAME      send a quick question (movies, theaters, timings)
  /mic             voice input
  /reconnect       reconnect now
  /status          connection status
  /quit            exit
Anything else is sent to EasyBook AI.`

// chatCLI turns input lines into manager calls.
type chatCLI struct {
	mgr  connection.Manager
	term *console
}

// readInput feeds stdin lines to the CLI until EOF, /quit or ctx is done.
func readInput(ctx context.Context, in io.Reader, cli *chatCLI) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return errQuit
			}
			if cli.handle(line) {
				return errQuit
			}
		}
	}
}

// handle runs one input line and reports whether the user asked to quit.
func (c *chatCLI) handle(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		c.mgr.Send(line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/new":
		if _, ok := c.mgr.NewSession(); ok {
			c.term.welcome()
		}

	case "/history":
		sessions := c.mgr.History().Sessions()
		if len(sessions) == 0 {
			c.term.println("No saved chats.")
			break
		}
		for _, l := range sessionList(sessions, c.mgr.History().CurrentIndex()) {
			c.term.println(l)
		}

	case "/load":
		if len(args) != 1 {
			c.term.println("Usage: /load N")
			break
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			c.term.println("Usage: /load N")
			break
		}
		s, ok := c.mgr.SelectSession(n - 1)
		if !ok {
			c.term.println(fmt.Sprintf("No chat %d.", n))
			break
		}
		c.term.replay(s)

	case "/quick":
		if len(args) != 1 {
			c.term.println("Quick questions: " + strings.Join(quickNames(), ", "))
			break
		}
		prompt, ok := quickPrompts[strings.ToLower(args[0])]
		if !ok {
			c.term.println("Quick questions: " + strings.Join(quickNames(), ", "))
			break
		}
		c.mgr.SendQuick(prompt)

	case "/mic":
		c.mgr.Announce(micMessage)

	case "/reconnect":
		c.mgr.Restart()

	case "/status":
		st := c.mgr.Stats()
		c.term.println(fmt.Sprintf("state=%s attempts=%d/%d chats=%d",
			st.State, st.Attempts, st.MaxAttempts, st.Sessions))

	case "/help":
		c.term.println(helpText)

	default:
		c.term.println("Unknown command " + cmd + ". Type /help.")
	}
	return false
}

func quickNames() []string {
	names := make([]string, 0, len(quickPrompts))
	for name := range quickPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sessionList renders the chat history sidebar, one line per session.
func sessionList(sessions []session.Session, current int) []string {
	lines := make([]string, 0, len(sessions))
	for i, s := range sessions {
		marker := " "
		if i == current {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s Chat %d  %s  (%d messages)",
			marker, i+1, s.CreatedAt.Local().Format("03:04 PM"), len(s.Records)))
	}
	return lines
}
