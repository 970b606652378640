package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnswerKind tags the variant held by an Answer.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerChoice
	AnswerBool
	AnswerText
)

// Answer is a learner's response to one question: a choice id, a boolean
// or free text. The zero value is an empty answer.
type Answer struct {
	kind   AnswerKind
	choice int
	flag   bool
	text   string
}

func ChoiceAnswer(id int) Answer { return Answer{kind: AnswerChoice, choice: id} }
func BoolAnswer(b bool) Answer   { return Answer{kind: AnswerBool, flag: b} }
func TextAnswer(s string) Answer { return Answer{kind: AnswerText, text: s} }

func (a Answer) Kind() AnswerKind { return a.kind }
func (a Answer) ChoiceID() int    { return a.choice }
func (a Answer) Bool() bool       { return a.flag }
func (a Answer) Text() string     { return a.text }

// IsEmpty reports whether the answer counts as unanswered. Whitespace-only
// text is empty.
func (a Answer) IsEmpty() bool {
	switch a.kind {
	case AnswerNone:
		return true
	case AnswerText:
		return strings.TrimSpace(a.text) == ""
	}
	return false
}

func (a Answer) String() string {
	switch a.kind {
	case AnswerChoice:
		return "choice " + strconv.Itoa(a.choice)
	case AnswerBool:
		return strconv.FormatBool(a.flag)
	case AnswerText:
		return strconv.Quote(a.text)
	}
	return "<none>"
}

// MarshalJSON encodes a choice as a number, a boolean as a bool and text as
// a string, matching the service's {question_id: answer} map.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerChoice:
		return json.Marshal(a.choice)
	case AnswerBool:
		return json.Marshal(a.flag)
	case AnswerText:
		return json.Marshal(a.text)
	}
	return []byte("null"), nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*a = Answer{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*a = BoolAnswer(data[0] == 't')
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		id, err := n.Int64()
		if err != nil {
			return fmt.Errorf("answer: choice id %s is not an integer", n)
		}
		*a = ChoiceAnswer(int(id))
	}
	return nil
}
