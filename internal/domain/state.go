// Package domain contains pure, dependency-free domain models and types
// for interview answer evaluation: answer records, judge and confidence
// results, score aggregation, and session finalization.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"
)

// Key names a State slot holding values of type T.
type Key[T any] struct{ name string }

// NewKey declares a key outside this package, e.g. for test fixtures.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Keys shared by the evaluation and finalization pipelines.
var (
	// KeyQuestion stores the interview question being answered.
	KeyQuestion = Key[string]{"question"}

	// KeyAnswer stores the candidate's free-form answer text.
	KeyAnswer = Key[string]{"answer"}

	// KeyConfidence stores the delivery-confidence analysis of the answer.
	KeyConfidence = Key[ConfidenceResult]{"confidence"}

	// KeyJudgeResult stores the content evaluation produced by a judge,
	// whether remote or local.
	KeyJudgeResult = Key[JudgeResult]{"judge_result"}

	// KeySuggestedAnswer stores a model answer shown to the candidate.
	KeySuggestedAnswer = Key[string]{"suggested_answer"}

	// KeyTopic stores the topic label derived from the question.
	KeyTopic = Key[string]{"topic"}

	// KeyEvaluation stores the aggregated response body.
	KeyEvaluation = Key[Evaluation]{"evaluation"}

	// KeyAnswerRecord stores the record to be appended to the interview.
	KeyAnswerRecord = Key[AnswerRecord]{"answer_record"}

	// KeyResponses stores the answer records of a session being finalized.
	KeyResponses = Key[[]AnswerRecord]{"responses"}

	// KeyWeights stores an optional caller weight vector aligned with
	// KeyResponses.
	KeyWeights = Key[[]float64]{"weights"}

	// KeyFinalScore stores the session-level final score.
	KeyFinalScore = Key[int]{"final_score"}

	// KeyInterviewID stores the identifier of the interview being served,
	// used for tracing and log correlation.
	KeyInterviewID = Key[string]{"execution.interview_id"}
)

// Name returns the string form of the key as stored in State.
func (k Key[T]) Name() string { return k.name }

// State is an immutable bag of pipeline values. Every write returns a new
// State and every read hands back a copy, so a State may be shared freely
// between the concurrent units of a layer.
type State struct {
	data map[string]any
}

// NewState returns an empty State.
func NewState() State { return State{data: make(map[string]any)} }

// Get returns the value stored under key. The boolean is false when the key
// is absent or holds a value of another type.
//
//	question, ok := Get(state, KeyQuestion)
func Get[T any](s State, key Key[T]) (T, bool) {
	raw, ok := s.data[key.name]
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := cloneValue(raw).(T)
	return v, ok
}

// Require is Get for values a step cannot do without. It reports a
// *StateError wrapping ErrKeyNotFound or ErrTypeMismatch.
func Require[T any](s State, key Key[T]) (T, error) {
	var zero T
	raw, ok := s.data[key.name]
	if !ok {
		return zero, NewStateError(key.name, "Require", ErrKeyNotFound)
	}
	v, ok := cloneValue(raw).(T)
	if !ok {
		return zero, NewStateError(key.name, "Require",
			fmt.Errorf("%w: have %T, want %T", ErrTypeMismatch, raw, zero))
	}
	return v, nil
}

// With returns a copy of s with key set to value.
func With[T any](s State, key Key[T], value T) State {
	return s.WithRaw(key.name, value)
}

// GetRaw reads a value by name. Merge strategies use it to compare states
// without knowing the key types.
func (s State) GetRaw(name string) (any, bool) {
	raw, ok := s.data[name]
	if !ok {
		return nil, false
	}
	return cloneValue(raw), true
}

// WithRaw is the untyped form of With.
func (s State) WithRaw(name string, value any) State {
	return s.WithMultiple(map[string]any{name: value})
}

// WithMultiple sets several values with a single copy of the map. Units
// that publish a record together with its projection use it so both land
// atomically.
func (s State) WithMultiple(updates map[string]any) State {
	data := maps.Clone(s.data)
	if data == nil {
		data = make(map[string]any, len(updates))
	}
	for name, v := range updates {
		data[name] = cloneValue(v)
	}
	return State{data: data}
}

// Keys lists the names present in s in no particular order.
func (s State) Keys() []string {
	return slices.Collect(maps.Keys(s.data))
}

func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// cloneValue copies slices, maps, pointers and the exported fields of
// structs so callers cannot reach State internals through a returned
// value. AnswerRecord carries Strengths and Improvements slices, which is
// why this walk is needed at all.
func cloneValue(value any) any {
	if value == nil {
		return nil
	}
	if t, ok := value.(time.Time); ok {
		return t
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return value
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := range v.Len() {
			out.Index(i).Set(cloneInto(v.Index(i)))
		}
		return out.Interface()
	case reflect.Map:
		if v.IsNil() {
			return value
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(cloneInto(iter.Key()), cloneInto(iter.Value()))
		}
		return out.Interface()
	case reflect.Pointer:
		if v.IsNil() {
			return value
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(cloneInto(v.Elem()))
		return out.Interface()
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := range v.NumField() {
			if f := out.Field(i); f.CanSet() {
				f.Set(cloneInto(v.Field(i)))
			}
		}
		return out.Interface()
	default:
		return value
	}
}

// cloneInto clones v and converts the result back to v's static type so it
// can be assigned into an element, key or field slot. Interface-typed slots
// holding nil are passed through untouched.
func cloneInto(v reflect.Value) reflect.Value {
	if (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer ||
		v.Kind() == reflect.Slice || v.Kind() == reflect.Map) && v.IsNil() {
		return v
	}
	if !v.CanInterface() {
		return v
	}
	c := reflect.ValueOf(cloneValue(v.Interface()))
	if !c.IsValid() {
		return reflect.Zero(v.Type())
	}
	return c.Convert(v.Type())
}
