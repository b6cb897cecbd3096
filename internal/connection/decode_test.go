package connection

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    payloadKind
		text    string
		chart   *ChartData
		decErr  bool
	}{
		{
			name:    "plain text",
			payload: "Hello from EasyBook",
			kind:    kindText,
			text:    "Hello from EasyBook",
			decErr:  true,
		},
		{
			name:    "candidate list",
			payload: `{"candidates":[{"content":{"parts":[{"text":"Here are some movies"}]}}]}`,
			kind:    kindCandidate,
			text:    "Here are some movies",
		},
		{
			name:    "candidate without text is shown verbatim",
			payload: `{"candidates":[{"content":{}}]}`,
			kind:    kindText,
			text:    `{"candidates":[{"content":{}}]}`,
			decErr:  true,
		},
		{
			name:    "candidates string is shown verbatim",
			payload: `{"candidates":"abc"}`,
			kind:    kindText,
			text:    `{"candidates":"abc"}`,
			decErr:  true,
		},
		{
			name:    "empty candidates string falls through",
			payload: `{"candidates":""}`,
			kind:    kindJSON,
			text:    "{\n  \"candidates\": \"\"\n}",
		},
		{
			name:    "candidates object without first element falls through",
			payload: `{"candidates":{"x":1},"error":"quota"}`,
			kind:    kindError,
			text:    "❌ quota",
		},
		{
			name:    "error field",
			payload: `{"error":"rate limited"}`,
			kind:    kindError,
			text:    "❌ rate limited",
		},
		{
			name:    "structured error keeps raw json",
			payload: `{"error":{"code":429}}`,
			kind:    kindError,
			text:    `❌ {"code":429}`,
		},
		{
			name:    "sentiment",
			payload: `{"Positive":5,"Negative":2}`,
			kind:    kindSentiment,
			text:    MsgSentimentDone,
			chart:   &ChartData{Positive: 5, Negative: 2},
		},
		{
			name:    "sentiment with unusable values",
			payload: `{"Positive":"n/a","Negative":null,"Neutral":3}`,
			kind:    kindSentiment,
			text:    MsgSentimentDone,
			chart:   &ChartData{Neutral: 3},
		},
		{
			name:    "falsy error falls through to sentiment",
			payload: `{"error":false,"Positive":1,"Negative":0}`,
			kind:    kindSentiment,
			text:    MsgSentimentDone,
			chart:   &ChartData{Positive: 1},
		},
		{
			name:    "other json is pretty printed",
			payload: `{"status":"ok","count":2}`,
			kind:    kindJSON,
			text:    "{\n  \"status\": \"ok\",\n  \"count\": 2\n}",
		},
		{
			name:    "empty error string is not an error",
			payload: `{"error":""}`,
			kind:    kindJSON,
			text:    "{\n  \"error\": \"\"\n}",
		},
		{
			name:    "only positive is not sentiment",
			payload: `{"Positive":1}`,
			kind:    kindJSON,
			text:    "{\n  \"Positive\": 1\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeInbound(tt.payload)

			assert.Equal(t, tt.kind, got.kind)
			assert.Equal(t, tt.text, got.text)
			assert.Equal(t, tt.chart, got.chart)
			if tt.decErr {
				assert.True(t, errors.Is(got.err, ErrDecode))
			} else {
				assert.NoError(t, got.err)
			}
		})
	}
}

func TestReconnectDelay(t *testing.T) {
	for _, base := range []time.Duration{time.Second, 3 * time.Second} {
		for attempt := 1; attempt <= 5; attempt++ {
			assert.Equal(t, base*time.Duration(attempt), ReconnectDelay(base, attempt))
		}
	}
	assert.Zero(t, ReconnectDelay(3*time.Second, 0))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
