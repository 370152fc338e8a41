// Package faq answers questions from a static list of pattern/answer pairs.
package faq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrEmptyPattern = errors.New("faq entry has an empty pattern")
	ErrEmptyAnswer  = errors.New("faq entry has an empty answer")
)

// Entry maps one or more question patterns to an answer.
type Entry struct {
	Patterns []string `json:"questions"`
	Answer   string   `json:"answer"`
}

// UnmarshalJSON accepts "question" as a string or a list, and "questions"
// as a list. Both keys may be present; their patterns are concatenated.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question  json.RawMessage `json:"question"`
		Questions []string        `json:"questions"`
		Answer    string          `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var patterns []string
	if q := bytes.TrimSpace(raw.Question); len(q) > 0 && !bytes.Equal(q, []byte("null")) {
		switch q[0] {
		case '"':
			var single string
			if err := json.Unmarshal(q, &single); err != nil {
				return fmt.Errorf("decode question: %w", err)
			}
			patterns = append(patterns, single)
		case '[':
			var many []string
			if err := json.Unmarshal(q, &many); err != nil {
				return fmt.Errorf("decode question list: %w", err)
			}
			patterns = append(patterns, many...)
		default:
			return fmt.Errorf("question must be a string or a list of strings")
		}
	}
	patterns = append(patterns, raw.Questions...)
	e.Patterns = patterns
	e.Answer = raw.Answer
	return nil
}

// Validate rejects entries that would match every input or answer nothing.
func (e Entry) Validate() error {
	if len(e.Patterns) == 0 {
		return ErrEmptyPattern
	}
	for _, p := range e.Patterns {
		if strings.TrimSpace(p) == "" {
			return ErrEmptyPattern
		}
	}
	if strings.TrimSpace(e.Answer) == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// Parse decodes and validates a FAQ document.
func Parse(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode faq: %w", err)
	}
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("faq entry %d: %w", i, err)
		}
	}
	return entries, nil
}

// Load reads the FAQ resource at path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrEmpty is Load that never fails: any problem with the resource is
// logged and an empty FAQ is returned.
func LoadOrEmpty(path string, log *zap.Logger) []Entry {
	entries, err := Load(path)
	if err != nil {
		log.Warn("faq unavailable, continuing without faq answers",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	log.Info("faq loaded", zap.String("path", path), zap.Int("entries", len(entries)))
	return entries
}
