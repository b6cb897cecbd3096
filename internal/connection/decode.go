package connection

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// payloadKind labels how an inbound payload was interpreted.
type payloadKind string

const (
	kindText      payloadKind = "text"
	kindCandidate payloadKind = "candidate"
	kindError     payloadKind = "error"
	kindSentiment payloadKind = "sentiment"
	kindJSON      payloadKind = "json"
)

// inbound is the result of decoding one payload.
type inbound struct {
	kind  payloadKind
	text  string
	chart *ChartData
	err   error // ErrDecode when the payload was shown verbatim
}

const candidateTextPath = "candidates.0.content.parts.0.text"

var prettyOptions = &pretty.Options{
	Width:  1, // never collapse arrays onto one line
	Prefix: "",
	Indent: "  ",
}

// decodeInbound interprets a payload in order: candidate list, error
// field, sentiment report, then any other JSON pretty-printed. Text that is
// not JSON is returned verbatim.
func decodeInbound(data string) inbound {
	if !gjson.Valid(data) {
		return inbound{kind: kindText, text: data, err: ErrDecode}
	}
	root := gjson.Parse(data)

	if hasCandidate(root.Get("candidates")) {
		text := root.Get(candidateTextPath)
		if !text.Exists() {
			return inbound{
				kind: kindText,
				text: data,
				err:  fmt.Errorf("%w: missing %s", ErrDecode, candidateTextPath),
			}
		}
		return inbound{kind: kindCandidate, text: text.String()}
	}

	if e := root.Get("error"); truthy(e) {
		return inbound{kind: kindError, text: MsgErrorPrefix + e.String()}
	}

	pos, neg := root.Get("Positive"), root.Get("Negative")
	if pos.Exists() && neg.Exists() {
		return inbound{
			kind: kindSentiment,
			text: MsgSentimentDone,
			chart: &ChartData{
				Positive: pos.Float(),
				Negative: neg.Float(),
				Neutral:  root.Get("Neutral").Float(),
			},
		}
	}

	out := pretty.PrettyOptions([]byte(data), prettyOptions)
	return inbound{kind: kindJSON, text: string(bytes.TrimRight(out, "\n"))}
}

// hasCandidate reports whether candidates has a usable first element. A
// non-empty string counts: its first character is a candidate without content.
func hasCandidate(c gjson.Result) bool {
	if c.Type == gjson.String {
		return c.Str != ""
	}
	return truthy(c.Get("0"))
}

// truthy reports whether a JSON value counts as set: present and not
// false, null, zero or the empty string.
func truthy(r gjson.Result) bool {
	if !r.Exists() {
		return false
	}
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return true
	}
}
