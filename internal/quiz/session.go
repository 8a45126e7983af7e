package quiz

import (
	"errors"
	"math/rand"
	"time"

	"recitation-service/internal/models"
)

var (
	ErrInvalidConfiguration = errors.New("invalid session configuration")
	ErrSessionAlreadyEnded  = errors.New("session already ended")
	ErrSessionNotFinished   = errors.New("session not finished")
)

type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Question is one multiple-choice question: the learner hears or reads
// the prompt verse and picks the verse that follows it on the page.
type Question struct {
	Number        int      `json:"number"`
	Prompt        string   `json:"prompt"`
	AudioURL      string   `json:"audio_url,omitempty"`
	Choices       []string `json:"choices"`
	correctAnswer string
}

// Mistake records a wrong answer with enough context to re-display it
// during review.
type Mistake struct {
	Prompt        string `json:"prompt"`
	CorrectAnswer string `json:"correct_answer"`
}

type AnswerOutcome struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
}

type Result struct {
	Score    int       `json:"score"`
	Total    int       `json:"total"`
	Mistakes []Mistake `json:"mistakes"`
}

// Session is one play-through over a single page. It is created in
// progress, advances one question per Answer call and completes when
// the last question is answered. A completed session only serves its
// Result and is discarded by the caller afterwards.
type Session struct {
	UserName string
	PageID   string
	Narrator string

	questions []Question
	index     int
	score     int
	mistakes  []Mistake
	state     State
	startedAt time.Time
}

// New builds a session from the page's verses. total questions are
// drawn without replacement from the page's prompt pool: every verse
// except the last can prompt for its successor, so a page of n verses
// supports at most n-1 questions.
func New(verses []models.Verse, total int, narrator, userName, pageID string, rng *rand.Rand) (*Session, error) {
	if len(verses) < 2 || total < 1 || total > len(verses)-1 {
		return nil, ErrInvalidConfiguration
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	prompts := rng.Perm(len(verses) - 1)[:total]
	questions := make([]Question, 0, total)
	for _, i := range prompts {
		questions = append(questions, buildQuestion(verses, i, narrator, rng))
	}

	return &Session{
		UserName:  userName,
		PageID:    pageID,
		Narrator:  narrator,
		questions: questions,
		mistakes:  []Mistake{},
		state:     StateInProgress,
		startedAt: time.Now(),
	}, nil
}

// buildQuestion makes a next-verse question for prompt index i: the
// correct choice is verse i+1, distractors are up to three other
// verses from the same page.
func buildQuestion(verses []models.Verse, i int, narrator string, rng *rand.Rand) Question {
	prompt := verses[i]
	correct := verses[i+1].Text

	choices := []string{correct}
	for _, j := range rng.Perm(len(verses)) {
		if len(choices) == 4 {
			break
		}
		// Pages repeat verses; a distractor must not duplicate the
		// prompt or the correct answer by text.
		if j == i+1 || verses[j].Text == prompt.Text || verses[j].Text == correct {
			continue
		}
		choices = append(choices, verses[j].Text)
	}
	rng.Shuffle(len(choices), func(a, b int) {
		choices[a], choices[b] = choices[b], choices[a]
	})

	return Question{
		Number:        prompt.Number,
		Prompt:        prompt.Text,
		AudioURL:      prompt.Audio[narrator],
		Choices:       choices,
		correctAnswer: correct,
	}
}

// Current returns the pending question.
func (s *Session) Current() (Question, error) {
	if s.state == StateCompleted {
		return Question{}, ErrSessionAlreadyEnded
	}
	return s.questions[s.index], nil
}

// Answer scores the choice against the current question and advances.
// A wrong answer is recorded as a mistake; the index moves either way,
// and answering the last question completes the session.
func (s *Session) Answer(choice string) (AnswerOutcome, error) {
	if s.state == StateCompleted {
		return AnswerOutcome{}, ErrSessionAlreadyEnded
	}

	question := s.questions[s.index]
	outcome := AnswerOutcome{
		IsCorrect:     choice == question.correctAnswer,
		CorrectAnswer: question.correctAnswer,
	}

	if outcome.IsCorrect {
		s.score++
	} else {
		s.mistakes = append(s.mistakes, Mistake{
			Prompt:        question.Prompt,
			CorrectAnswer: question.correctAnswer,
		})
	}

	s.index++
	if s.index == len(s.questions) {
		s.state = StateCompleted
	}
	return outcome, nil
}

// Result is only available once the session has completed.
func (s *Session) Result() (Result, error) {
	if s.state != StateCompleted {
		return Result{}, ErrSessionNotFinished
	}
	return Result{
		Score:    s.score,
		Total:    len(s.questions),
		Mistakes: s.mistakes,
	}, nil
}

func (s *Session) State() State {
	return s.state
}

// Progress reports answered and total question counts.
func (s *Session) Progress() (int, int) {
	return s.index, len(s.questions)
}
