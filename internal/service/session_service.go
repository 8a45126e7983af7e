package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"recitation-service/internal/economy"
	"recitation-service/internal/event"
	"recitation-service/internal/models"
	"recitation-service/internal/progression"
	"recitation-service/internal/quiz"
	"recitation-service/internal/repository"
)

// Progress is the question X of Y payload sent with every question.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// StartResult is returned when a session opens: the id the client
// answers against, plus the first question.
type StartResult struct {
	SessionID string        `json:"session_id"`
	UserName  string        `json:"user_name"`
	PageID    string        `json:"page_id"`
	Narrator  string        `json:"narrator"`
	Question  quiz.Question `json:"question"`
	Progress  Progress      `json:"progress"`
}

// Summary closes a play-through. SaveError reports a failed profile
// save without failing the session.
type Summary struct {
	UserName       string            `json:"user_name"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"total_questions"`
	XPEarned       int               `json:"xp_earned"`
	NewXP          int               `json:"new_xp"`
	LevelUp        *models.LevelInfo `json:"level_up,omitempty"`
	Mistakes       []quiz.Mistake    `json:"mistakes"`
	SaveError      string            `json:"save_error,omitempty"`
}

// AnswerResult carries the per-answer outcome, and either the next
// question or the final summary once the session completes.
type AnswerResult struct {
	Outcome      quiz.AnswerOutcome `json:"outcome"`
	Completed    bool               `json:"completed"`
	NextQuestion *quiz.Question     `json:"next_question,omitempty"`
	Progress     Progress           `json:"progress"`
	Summary      *Summary           `json:"summary,omitempty"`
}

// SessionService orchestrates play-throughs: it validates requests
// against the rule table, runs the quiz state machine, and on
// completion feeds the score through the progression engine and the
// economy before handing the profile back to persistence. Live
// sessions are held in memory and discarded once their result is out.
type SessionService struct {
	rules     *models.RuleTable
	engine    *progression.Engine
	players   PlayerStore
	records   RecordStore
	content   ContentProvider
	publisher EventPublisher

	mu       sync.Mutex
	sessions map[string]*quiz.Session
	byPlayer map[string]string
	rng      *rand.Rand
}

// playerKey matches the repository's name normalization so one stored
// profile maps to at most one live session.
func playerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func NewSessionService(
	rules *models.RuleTable,
	engine *progression.Engine,
	players PlayerStore,
	records RecordStore,
	content ContentProvider,
	publisher EventPublisher,
) *SessionService {
	return &SessionService{
		rules:     rules,
		engine:    engine,
		players:   players,
		records:   records,
		content:   content,
		publisher: publisher,
		sessions:  make(map[string]*quiz.Session),
		byPlayer:  make(map[string]string),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start validates the request and opens a session. questionsCount 0
// means the rule table default. Starting a new session replaces any
// unfinished one the player abandoned.
func (s *SessionService) Start(ctx context.Context, userName, pageID string, questionsCount int, narrator string) (*StartResult, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, ErrEmptyName
	}
	if !s.rules.PageAllowed(pageID) {
		return nil, fmt.Errorf("%w: %q", ErrPageNotAllowed, pageID)
	}
	if questionsCount <= 0 {
		questionsCount = s.rules.QuestionsPerSession
	}

	verses, err := s.content.PageVerses(ctx, pageID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := quiz.New(verses, questionsCount, narrator, userName, pageID, s.rng)
	if err != nil {
		return nil, err
	}

	key := playerKey(userName)
	if stale, ok := s.byPlayer[key]; ok {
		delete(s.sessions, stale)
	}
	id := uuid.NewString()
	s.sessions[id] = session
	s.byPlayer[key] = id

	question, err := session.Current()
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(event.SessionStarted, map[string]interface{}{
		"session_id": id,
		"user_name":  userName,
		"page_id":    pageID,
		"questions":  questionsCount,
	}); err != nil {
		log.Printf("failed to publish session start: %v", err)
	}

	answered, total := session.Progress()
	return &StartResult{
		SessionID: id,
		UserName:  userName,
		PageID:    pageID,
		Narrator:  narrator,
		Question:  question,
		Progress:  Progress{Answered: answered, Total: total},
	}, nil
}

// Question returns the pending question of a live session.
func (s *SessionService) Question(sessionID string) (*quiz.Question, Progress, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, Progress{}, ErrSessionNotFound
	}

	question, err := session.Current()
	if err != nil {
		return nil, Progress{}, err
	}
	answered, total := session.Progress()
	return &question, Progress{Answered: answered, Total: total}, nil
}

// Answer scores one choice. When the session completes it is evicted,
// the score becomes XP, level-ups credit diamonds, and the profile
// goes back to the persistence layer.
func (s *SessionService) Answer(ctx context.Context, sessionID, choice string) (*AnswerResult, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	outcome, err := session.Answer(choice)
	if err != nil {
		return nil, err
	}

	answered, total := session.Progress()
	result := &AnswerResult{
		Outcome:  outcome,
		Progress: Progress{Answered: answered, Total: total},
	}

	if session.State() != quiz.StateCompleted {
		question, err := session.Current()
		if err != nil {
			return nil, err
		}
		result.NextQuestion = &question
		return result, nil
	}

	result.Completed = true
	summary, err := s.complete(ctx, sessionID, session)
	if err != nil {
		return nil, err
	}
	result.Summary = summary
	return result, nil
}

func (s *SessionService) complete(ctx context.Context, sessionID string, session *quiz.Session) (*Summary, error) {
	quizResult, err := session.Result()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	if key := playerKey(session.UserName); s.byPlayer[key] == sessionID {
		delete(s.byPlayer, key)
	}
	s.mu.Unlock()

	player, err := s.players.FindByName(ctx, session.UserName)
	saveError := ""
	persist := true
	if err != nil {
		player = models.NewPlayer(session.UserName)
		if !errors.Is(err, repository.ErrPlayerNotFound) {
			// Storage is down and the stored profile may hold real
			// progress. Writing a fresh profile over it would erase
			// that, so this completion is not persisted at all.
			saveError = err.Error()
			persist = false
			log.Printf("failed to load profile %q at completion: %v", session.UserName, err)
		}
	}

	xpEarned := s.engine.ExperienceForScore(quizResult.Score, quizResult.Total)
	newXP, levelUp := s.engine.Award(player.XP, xpEarned)
	player.XP = newXP
	if levelUp != nil {
		*player = economy.Credit(*player, levelUp.Reward)
	}

	if persist {
		if err := s.players.Save(ctx, player); err != nil {
			saveError = err.Error()
			log.Printf("failed to save profile %q: %v", player.Name, err)
		}
	}

	record := &models.SessionRecord{
		UserName:       player.Name,
		PageID:         session.PageID,
		Narrator:       session.Narrator,
		Score:          quizResult.Score,
		TotalQuestions: quizResult.Total,
		XPEarned:       xpEarned,
		LeveledUp:      levelUp != nil,
		CompletedAt:    time.Now().Unix(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		log.Printf("failed to record session for %q: %v", player.Name, err)
	}

	if err := s.publisher.Publish(event.SessionCompleted, map[string]interface{}{
		"user_name": player.Name,
		"page_id":   session.PageID,
		"score":     quizResult.Score,
		"total":     quizResult.Total,
		"xp_earned": xpEarned,
	}); err != nil {
		log.Printf("failed to publish session completion: %v", err)
	}
	if levelUp != nil {
		if err := s.publisher.Publish(event.PlayerLevelUp, map[string]interface{}{
			"user_name": player.Name,
			"level":     levelUp.Level,
			"title":     levelUp.Title,
			"reward":    levelUp.Reward,
		}); err != nil {
			log.Printf("failed to publish level up: %v", err)
		}
	}

	return &Summary{
		UserName:       player.Name,
		Score:          quizResult.Score,
		TotalQuestions: quizResult.Total,
		XPEarned:       xpEarned,
		NewXP:          newXP,
		LevelUp:        levelUp,
		Mistakes:       quizResult.Mistakes,
		SaveError:      saveError,
	}, nil
}
