// Package grading scores assessment responses against free-form answer keys.
//
// Answer keys are authored as plain text, so each question type accepts a few
// notations:
//
//	MULTIPLE_CHOICE  A  |  A,C  |  A; C  |  ["A","C"]
//	MATCHING         {"a":"1","b":"2"}  |  [["a","1"],["b","2"]]  |  a-1, b-2  |  a:1; b=2  |  a->1
//	SINGLE_ANSWER    Paris  |  Paris|paris, france  |  ["Paris","Paris, France"]
//
// All comparisons are case-insensitive with whitespace collapsed.
package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/stemsi/learnhub-backend/internal/model"
)

var (
	ErrUnsupportedType  = errors.New("unsupported question type")
	ErrInvalidAnswerKey = errors.New("invalid answer key")
)

// Result is the outcome of grading one response.
type Result struct {
	Correct bool
	Matched int
	Total   int
}

// Award converts a result into points out of the question's points.
// Only matching questions can earn partial credit.
func (r Result) Award(points int) int {
	if r.Correct {
		return points
	}
	if r.Total == 0 || r.Matched == 0 {
		return 0
	}
	return points * r.Matched / r.Total
}

// Evaluate grades response against key for the given question type.
// An empty or malformed response is simply incorrect; a malformed key is an error.
func Evaluate(qt model.QuestionType, key, response string) (Result, error) {
	switch qt {
	case model.QuestionTypeMultipleChoice:
		return evaluateChoice(key, response)
	case model.QuestionTypeMatching:
		return evaluateMatching(key, response)
	case model.QuestionTypeSingleAnswer:
		return evaluateSingle(key, response)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, qt)
	}
}

// ValidateKey checks that key parses for the question type.
func ValidateKey(qt model.QuestionType, key string) error {
	switch qt {
	case model.QuestionTypeMultipleChoice, model.QuestionTypeSingleAnswer:
		items, err := parseList(key, qt == model.QuestionTypeSingleAnswer)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: no options", ErrInvalidAnswerKey)
		}
		return nil
	case model.QuestionTypeMatching:
		pairs, err := parsePairs(key)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			return fmt.Errorf("%w: no pairs", ErrInvalidAnswerKey)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedType, qt)
	}
}

// Percent returns score/maxScore as a percentage rounded to two decimals.
func Percent(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(float64(score)/float64(maxScore)*10000) / 100
}

// Passed reports whether score out of maxScore meets passingScore percent.
// It compares exact integers, not the rounded Percent, and matches the
// course completion query.
func Passed(score, maxScore, passingScore int) bool {
	return maxScore > 0 && score*100 >= passingScore*maxScore
}

// ─── Multiple choice ────────────────────────────────────────────────

func evaluateChoice(key, response string) (Result, error) {
	want, err := parseList(key, false)
	if err != nil {
		return Result{}, err
	}
	if len(want) == 0 {
		return Result{}, fmt.Errorf("%w: no options", ErrInvalidAnswerKey)
	}

	res := Result{Total: 1}
	got, err := parseList(response, false)
	if err != nil || len(got) == 0 {
		return res, nil
	}

	if sameSet(want, got) {
		res.Correct = true
		res.Matched = 1
	}
	return res, nil
}

func sameSet(a, b []string) bool {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for k := range setA {
		if _, ok := setB[k]; !ok {
			return false
		}
	}
	return true
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// ─── Single answer ──────────────────────────────────────────────────

func evaluateSingle(key, response string) (Result, error) {
	accepted, err := parseList(key, true)
	if err != nil {
		return Result{}, err
	}
	if len(accepted) == 0 {
		return Result{}, fmt.Errorf("%w: no accepted answers", ErrInvalidAnswerKey)
	}

	res := Result{Total: 1}
	got := normalize(response)
	if got == "" {
		return res, nil
	}

	for _, a := range accepted {
		if a == got || sameNumber(a, got) {
			res.Correct = true
			res.Matched = 1
			break
		}
	}
	return res, nil
}

func sameNumber(a, b string) bool {
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return false
	}
	y, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return false
	}
	return math.Abs(x-y) < 1e-9
}

// ─── Matching ───────────────────────────────────────────────────────

func evaluateMatching(key, response string) (Result, error) {
	want, err := parsePairs(key)
	if err != nil {
		return Result{}, err
	}
	if len(want) == 0 {
		return Result{}, fmt.Errorf("%w: no pairs", ErrInvalidAnswerKey)
	}

	res := Result{Total: len(want)}
	got, err := parsePairs(response)
	if err != nil || len(got) == 0 {
		return res, nil
	}

	for left, right := range want {
		if got[left] == right {
			res.Matched++
		}
	}
	// Pairs the key does not contain count against the response.
	res.Total = max(len(want), len(got))
	res.Correct = res.Matched == res.Total
	return res, nil
}

// pairSeparators are tried in order; the first one present splits an item.
var pairSeparators = []string{"->", "=>", ":", "=", "-"}

func parsePairs(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]string{}, nil
	}

	switch raw[0] {
	case '{':
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAnswerKey, err)
		}
		pairs := make(map[string]string, len(obj))
		for k, v := range obj {
			if err := addPair(pairs, k, stringify(v)); err != nil {
				return nil, err
			}
		}
		return pairs, nil

	case '[':
		var arr [][]interface{}
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAnswerKey, err)
		}
		pairs := make(map[string]string, len(arr))
		for _, p := range arr {
			if len(p) != 2 {
				return nil, fmt.Errorf("%w: pair must have two elements", ErrInvalidAnswerKey)
			}
			if err := addPair(pairs, stringify(p[0]), stringify(p[1])); err != nil {
				return nil, err
			}
		}
		return pairs, nil
	}

	items := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	pairs := make(map[string]string, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		left, right, ok := splitPair(item)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a pair", ErrInvalidAnswerKey, item)
		}
		if err := addPair(pairs, left, right); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

func splitPair(item string) (string, string, bool) {
	for _, sep := range pairSeparators {
		if left, right, found := strings.Cut(item, sep); found {
			return left, right, true
		}
	}
	return "", "", false
}

func addPair(pairs map[string]string, left, right string) error {
	l, r := normalize(left), normalize(right)
	if l == "" || r == "" {
		return fmt.Errorf("%w: empty side in pair", ErrInvalidAnswerKey)
	}
	if _, dup := pairs[l]; dup {
		return fmt.Errorf("%w: %q matched twice", ErrInvalidAnswerKey, l)
	}
	pairs[l] = r
	return nil
}

// ─── Shared parsing ─────────────────────────────────────────────────

// parseList reads a JSON array or a delimited list. Single answers split only
// on "|" so that commas stay inside an accepted answer.
func parseList(raw string, pipeOnly bool) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var parts []string
	if raw[0] == '[' {
		var arr []interface{}
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAnswerKey, err)
		}
		for _, v := range arr {
			parts = append(parts, stringify(v))
		}
	} else if pipeOnly {
		parts = strings.Split(raw, "|")
	} else {
		parts = strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ';' || r == '|' || r == '\n'
		})
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
