package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rickgao/easybook-chat/internal/connection"
	"github.com/rickgao/easybook-chat/internal/format"
	"github.com/rickgao/easybook-chat/internal/session"
)

const (
	statusConnected    = "🟢 Connected to EasyBook AI"
	statusDisconnected = "🔴 Disconnected - Trying to reconnect..."
	typingText         = "🤖 EasyBook AI is thinking..."
	chartTitle         = "📊 Sentiment Analysis Report"
	chartWidth         = 30
)

const welcomeText = `🎬 Welcome to EasyBook AI Assistant!

I can help you with:
• Finding available movies
• Locating theaters in your city
• Checking show timings
• Booking guidance
• General movie information

What would you like to know today?`

// console is the terminal Consumer. Writes are serialized because the
// manager loop and the input loop both print.
type console struct {
	mu     sync.Mutex
	out    io.Writer
	markup bool
}

func newConsole(out io.Writer, markup bool) *console {
	return &console{out: out, markup: markup}
}

func (c *console) OnStatusChange(connected bool) {
	if connected {
		c.println(statusConnected)
		return
	}
	c.println(statusDisconnected)
}

func (c *console) OnDisplayMessage(text string, category format.Category) {
	c.println(c.render(text, category))
}

func (c *console) OnShowTyping() {
	c.println(typingText)
}

// OnHideTyping is a no-op: the reply printed next replaces the indicator.
func (c *console) OnHideTyping() {}

func (c *console) OnChartData(data connection.ChartData) {
	lines := append([]string{chartTitle}, sentimentBars(data, chartWidth)...)
	c.println(strings.Join(lines, "\n"))
}

func (c *console) welcome() {
	c.println(welcomeText)
}

// replay prints every record of a session.
func (c *console) replay(s session.Session) {
	for _, r := range s.Records {
		if r.Direction == session.DirectionUser {
			c.println("you: " + r.Text)
			continue
		}
		c.println(c.render(r.Text, format.Classify(r.Text)))
	}
}

func (c *console) render(text string, category format.Category) string {
	if c.markup {
		return format.RenderAs(category, text)
	}
	return text
}

func (c *console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

// sentimentBars draws the positive/negative/neutral split as horizontal bars.
func sentimentBars(data connection.ChartData, width int) []string {
	values := []struct {
		label string
		value float64
	}{
		{"Positive", data.Positive},
		{"Negative", data.Negative},
		{"Neutral", data.Neutral},
	}

	var total float64
	for _, v := range values {
		if v.value > 0 {
			total += v.value
		}
	}

	lines := make([]string, 0, len(values))
	for _, v := range values {
		share := 0.0
		if total > 0 && v.value > 0 {
			share = v.value / total
		}
		n := int(share*float64(width) + 0.5)
		lines = append(lines, fmt.Sprintf("%-8s %-*s %5.1f%%",
			v.label, width, strings.Repeat("█", n), share*100))
	}
	return lines
}
