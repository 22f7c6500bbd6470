package vectorstore

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator for a filter condition.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Condition compares one payload key against a value. Range operators take
// numbers; OpEq takes a string, bool or number.
type Condition struct {
	Key   string
	Op    Op
	Value interface{}
}

// Filter is a conjunction of conditions. A nil or empty filter matches everything.
type Filter struct {
	Must []Condition
}

func Match(key string, value interface{}) Condition {
	return Condition{Key: key, Op: OpEq, Value: value}
}

func Range(key string, op Op, value float64) Condition {
	return Condition{Key: key, Op: op, Value: value}
}

// Where builds a filter from conditions; no conditions yields nil.
func Where(conds ...Condition) *Filter {
	if len(conds) == 0 {
		return nil
	}
	return &Filter{Must: conds}
}

// And returns a new filter with extra conditions appended.
func (f *Filter) And(conds ...Condition) *Filter {
	out := &Filter{}
	if f != nil {
		out.Must = append(out.Must, f.Must...)
	}
	out.Must = append(out.Must, conds...)
	if len(out.Must) == 0 {
		return nil
	}
	return out
}

func (f *Filter) Empty() bool { return f == nil || len(f.Must) == 0 }

// Matches evaluates the filter against a payload.
func (f *Filter) Matches(p Payload) bool {
	if f.Empty() {
		return true
	}
	for _, c := range f.Must {
		if !c.matches(p) {
			return false
		}
	}
	return true
}

func (c Condition) matches(p Payload) bool {
	got, ok := p[c.Key]
	if !ok || got == nil {
		return false
	}
	if c.Op == OpEq {
		if want, ok := toFloat(c.Value); ok {
			have, ok := toFloat(got)
			return ok && have == want
		}
		switch want := c.Value.(type) {
		case string:
			have, ok := got.(string)
			return ok && have == want
		case bool:
			have, ok := got.(bool)
			return ok && have == want
		}
		return false
	}
	want, ok := toFloat(c.Value)
	if !ok {
		return false
	}
	have, ok := toFloat(got)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGt:
		return have > want
	case OpGte:
		return have >= want
	case OpLt:
		return have < want
	case OpLte:
		return have <= want
	}
	return false
}

func (c Condition) validate() error {
	if c.Key == "" {
		return fmt.Errorf("filter condition without key")
	}
	switch c.Op {
	case OpEq:
		switch c.Value.(type) {
		case string, bool:
			return nil
		}
		if _, ok := toFloat(c.Value); ok {
			return nil
		}
		return fmt.Errorf("unsupported match value %T for %s", c.Value, c.Key)
	case OpGt, OpGte, OpLt, OpLte:
		if _, ok := toFloat(c.Value); !ok {
			return fmt.Errorf("range on %s needs a number, got %T", c.Key, c.Value)
		}
		return nil
	}
	return fmt.Errorf("unknown operator %q", c.Op)
}

const cursorPrefix = "offset:"

// EncodeOffsetCursor returns the opaque cursor for an offset-based page.
func EncodeOffsetCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeOffsetCursor parses a cursor produced by EncodeOffsetCursor; "" is offset 0.
func DecodeOffsetCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	s := string(raw)
	if !strings.HasPrefix(s, cursorPrefix) {
		return 0, fmt.Errorf("invalid cursor")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, cursorPrefix))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid cursor offset")
	}
	return n, nil
}
