// Package hostpayload reads the JSON a chat host sends for one turn: the users and
// characters in the chat, the current message, and the last persisted sheet.
//
//	{
//	  "chatId": "c1",
//	  "users": [{"name": "Sam", "chatProfile": "I'm Sarah...", "isRemoved": false}],
//	  "characters": {"x": {"name": "Guide", "scenario": "Current date: ...", "isRemoved": false}},
//	  "message": {"isBot": false, "content": "hello"},
//	  "state": { ... persisted sheet ... }
//	}
//
// users and characters may be arrays or objects keyed by id; document order decides
// which entry is "first".
package hostpayload

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/theimaginaryfoundation/charsheet/sheet"
)

// Payload is one decoded host turn.
type Payload struct {
	ChatID  string
	Sources sheet.Sources
	Message sheet.Message
	State   sheet.State

	// HasState is false when the host sent no persisted sheet.
	HasState bool
}

// Parse decodes a host payload. Only malformed JSON is an error; missing parts are left zero.
func Parse(b []byte) (Payload, error) {
	if !gjson.ValidBytes(b) {
		return Payload{}, errors.New("hostpayload: invalid JSON")
	}
	doc := gjson.ParseBytes(b)

	var p Payload
	p.ChatID = doc.Get("chatId").String()

	users := doc.Get("users")
	chars := doc.Get("characters")
	if users.Exists() {
		n := count(users)
		p.Sources.NumUsers = &n
	}
	if chars.Exists() {
		n := count(chars)
		p.Sources.NumChars = &n
	}

	if u, ok := firstActive(users); ok {
		p.Sources.Persona = &sheet.Persona{
			DisplayName: u.Get("name").String(),
			Text:        u.Get("chatProfile").String(),
		}
	}
	if c, ok := firstActive(chars); ok {
		scenario := c.Get("scenario").String()
		p.Sources.Scenario = &scenario
	}

	if msg := doc.Get("message"); msg.Exists() {
		p.Message.Content = msg.Get("content").String()
		p.Message.Role = sheet.RoleUser
		if msg.Get("isBot").Bool() {
			p.Message.Role = sheet.RoleBot
		}
	}

	if st := doc.Get("state"); st.Exists() && st.IsObject() {
		if err := json.Unmarshal([]byte(st.Raw), &p.State); err != nil {
			return Payload{}, fmt.Errorf("hostpayload: state: %w", err)
		}
		p.HasState = true
	}
	return p, nil
}

// firstActive returns the first entry whose isRemoved flag is not true.
func firstActive(list gjson.Result) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	list.ForEach(func(_, v gjson.Result) bool {
		if v.Get("isRemoved").Bool() {
			return true
		}
		found, ok = v, true
		return false
	})
	return found, ok
}

func count(list gjson.Result) int {
	n := 0
	list.ForEach(func(_, _ gjson.Result) bool {
		n++
		return true
	})
	return n
}
