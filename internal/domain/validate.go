package domain

import (
	"fmt"
	"strings"
)

// NormalizeQuestion trims the authored fields the way the quiz editor stores them.
func NormalizeQuestion(q Question) Question {
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = strings.TrimSpace(opt)
	}
	return Question{
		Prompt:        strings.TrimSpace(q.Prompt),
		Options:       options,
		CorrectOption: strings.TrimSpace(q.CorrectOption),
		MediaURL:      strings.TrimSpace(q.MediaURL),
	}
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, opt := range q.Options {
		if opt == option {
			return true
		}
	}
	return false
}

// Validate checks the authoring invariants of a single question.
func (q Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("%w: question prompt is empty", ErrValidation)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: question %q needs at least two options", ErrValidation, q.Prompt)
	}
	for i, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("%w: question %q option %d is empty", ErrValidation, q.Prompt, i+1)
		}
	}
	if q.CorrectOption == "" {
		return fmt.Errorf("%w: question %q has no correct answer", ErrValidation, q.Prompt)
	}
	if !q.HasOption(q.CorrectOption) {
		return fmt.Errorf("%w: question %q correct answer %q is not an option", ErrValidation, q.Prompt, q.CorrectOption)
	}
	return nil
}

// Validate checks the quiz-level invariants and every question.
func (q Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: quiz title is empty", ErrValidation)
	}
	if strings.TrimSpace(q.Team) == "" {
		return fmt.Errorf("%w: quiz %q has no team", ErrValidation, q.Title)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %q has no questions", ErrValidation, q.Title)
	}
	for i, question := range q.Questions {
		if err := question.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// Normalize returns a copy of the quiz with trimmed text fields.
func (q Quiz) Normalize() Quiz {
	questions := make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		questions[i] = NormalizeQuestion(question)
	}
	return Quiz{
		ID:        strings.TrimSpace(q.ID),
		Title:     strings.TrimSpace(q.Title),
		Position:  strings.TrimSpace(q.Position),
		Team:      strings.TrimSpace(q.Team),
		Questions: questions,
	}
}
