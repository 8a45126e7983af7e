package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"recitation-service/internal/economy"
	"recitation-service/internal/models"
	"recitation-service/internal/progression"
	"recitation-service/internal/quiz"
	"recitation-service/internal/repository"
)

type fakePlayerStore struct {
	players map[string]models.Player
	findErr error
	saveErr error
	saves   int
}

func newFakePlayerStore() *fakePlayerStore {
	return &fakePlayerStore{players: map[string]models.Player{}}
}

func (f *fakePlayerStore) FindByName(_ context.Context, name string) (*models.Player, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	player, ok := f.players[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}
	copied := player
	return &copied, nil
}

func (f *fakePlayerStore) Save(_ context.Context, player *models.Player) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.players[strings.ToLower(strings.TrimSpace(player.Name))] = *player
	return nil
}

type fakeRecordStore struct {
	records []models.SessionRecord
	err     error
}

func (f *fakeRecordStore) Create(_ context.Context, record *models.SessionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *record)
	return nil
}

type fakeContent struct {
	verses []models.Verse
	err    error
}

func (f *fakeContent) PageVerses(_ context.Context, _ string) ([]models.Verse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.verses, nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) Publish(eventType string, _ interface{}) error {
	f.events = append(f.events, eventType)
	return nil
}

func versesFor(n int) []models.Verse {
	verses := make([]models.Verse, n)
	for i := range verses {
		verses[i] = models.Verse{
			Number: i + 1,
			Text:   fmt.Sprintf("v%d", i+1),
			Audio:  map[string]string{"ar.alafasy": fmt.Sprintf("https://audio/%d.mp3", i+1)},
		}
	}
	return verses
}

// correctFor derives the right choice from a next-verse prompt built
// by versesFor: the answer to "vN" is "vN+1".
func correctFor(t *testing.T, prompt string) string {
	t.Helper()
	n, err := strconv.Atoi(strings.TrimPrefix(prompt, "v"))
	if err != nil {
		t.Fatalf("Unexpected prompt %q", prompt)
	}
	return fmt.Sprintf("v%d", n+1)
}

func specRules() *models.RuleTable {
	return &models.RuleTable{
		AllowedPages:        []string{"1", "2", "604"},
		QuestionsPerSession: 5,
		BaseXP:              100,
		LevelCurve: []models.LevelTier{
			{ThresholdXP: 0, Title: "Beginner", Reward: 0},
			{ThresholdXP: 100, Title: "Novice", Reward: 50},
		},
	}
}

type fixture struct {
	players  *fakePlayerStore
	records  *fakeRecordStore
	content  *fakeContent
	events   *fakePublisher
	engine   *progression.Engine
	sessions *SessionService
	login    *PlayerService
}

func newFixture(verses []models.Verse) *fixture {
	rules := specRules()
	engine := progression.NewEngine(rules)
	players := newFakePlayerStore()
	records := &fakeRecordStore{}
	content := &fakeContent{verses: verses}
	events := &fakePublisher{}
	return &fixture{
		players:  players,
		records:  records,
		content:  content,
		events:   events,
		engine:   engine,
		sessions: NewSessionService(rules, engine, players, records, content, events),
		login:    NewPlayerService(players, engine, events),
	}
}

// playSession starts a session and answers with exactly `correct`
// right answers out of `total`, returning the completion result.
func playSession(t *testing.T, f *fixture, name string, total, correct int) *AnswerResult {
	t.Helper()
	start, err := f.sessions.Start(context.Background(), name, "604", total, "ar.alafasy")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	question := start.Question
	var last *AnswerResult
	for i := 0; i < total; i++ {
		choice := "wrong choice"
		if i < correct {
			choice = correctFor(t, question.Prompt)
		}
		last, err = f.sessions.Answer(context.Background(), start.SessionID, choice)
		if err != nil {
			t.Fatalf("Answer %d failed: %v", i, err)
		}
		if last.NextQuestion != nil {
			question = *last.NextQuestion
		}
	}
	if !last.Completed || last.Summary == nil {
		t.Fatal("Expected session to complete with a summary")
	}
	return last
}

func TestLogin(t *testing.T) {
	f := newFixture(versesFor(12))

	t.Run("empty name rejected", func(t *testing.T) {
		if _, err := f.login.Login(context.Background(), "   "); !errors.Is(err, ErrEmptyName) {
			t.Errorf("Expected ErrEmptyName, got %v", err)
		}
	})

	t.Run("first sight creates fresh profile", func(t *testing.T) {
		view, err := f.login.Login(context.Background(), "Amin")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if !view.NewPlayer {
			t.Error("Expected new player flag")
		}
		if view.XP != 0 || view.Diamonds != 0 || len(view.Inventory) != 0 {
			t.Errorf("Expected zeroed profile, got %+v", view)
		}
		if view.Level.Level != 1 || view.Level.Title != "Beginner" {
			t.Errorf("Expected level 1 Beginner, got %+v", view.Level)
		}
		if len(view.Capabilities) != 2 {
			t.Errorf("Expected default capabilities only, got %v", view.Capabilities)
		}
	})

	t.Run("returning name loads persisted profile", func(t *testing.T) {
		view, err := f.login.Login(context.Background(), "amin")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if view.NewPlayer {
			t.Error("Expected returning player")
		}
	})

	t.Run("load failure degrades without blocking", func(t *testing.T) {
		broken := newFakePlayerStore()
		broken.findErr = errors.New("storage down")
		login := NewPlayerService(broken, f.engine, f.events)

		view, err := login.Login(context.Background(), "sara")
		if err != nil {
			t.Fatalf("Login must not fail on storage errors, got %v", err)
		}
		if view.LoadError == "" {
			t.Error("Expected the load failure to be reported")
		}
		if view.XP != 0 {
			t.Errorf("Expected default state, got xp %d", view.XP)
		}
	})
}

func TestStartValidation(t *testing.T) {
	f := newFixture(versesFor(12))

	t.Run("page not allowed", func(t *testing.T) {
		_, err := f.sessions.Start(context.Background(), "amin", "9999", 5, "ar.alafasy")
		if !errors.Is(err, ErrPageNotAllowed) {
			t.Errorf("Expected ErrPageNotAllowed, got %v", err)
		}
		if len(f.sessions.sessions) != 0 {
			t.Error("No session must be created for a rejected page")
		}
	})

	t.Run("empty name", func(t *testing.T) {
		if _, err := f.sessions.Start(context.Background(), "", "1", 5, "ar.alafasy"); !errors.Is(err, ErrEmptyName) {
			t.Errorf("Expected ErrEmptyName, got %v", err)
		}
	})

	t.Run("question count beyond page", func(t *testing.T) {
		_, err := f.sessions.Start(context.Background(), "amin", "1", 50, "ar.alafasy")
		if !errors.Is(err, quiz.ErrInvalidConfiguration) {
			t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("zero count takes rule default", func(t *testing.T) {
		start, err := f.sessions.Start(context.Background(), "amin", "1", 0, "ar.alafasy")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if start.Progress.Total != 5 {
			t.Errorf("Expected default 5 questions, got %d", start.Progress.Total)
		}
	})

	t.Run("content failure surfaces", func(t *testing.T) {
		f.content.err = errors.New("provider down")
		defer func() { f.content.err = nil }()
		if _, err := f.sessions.Start(context.Background(), "amin", "1", 5, "ar.alafasy"); err == nil {
			t.Error("Expected content failure to surface")
		}
	})
}

func TestEndToEndProgression(t *testing.T) {
	f := newFixture(versesFor(12))

	if _, err := f.login.Login(context.Background(), "amin"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Session 1: 4 of 5 correct → round(4/5*100) = 80 xp, no level-up.
	first := playSession(t, f, "amin", 5, 4)
	if first.Summary.XPEarned != 80 {
		t.Errorf("Expected 80 xp, got %d", first.Summary.XPEarned)
	}
	if first.Summary.NewXP != 80 {
		t.Errorf("Expected new xp 80, got %d", first.Summary.NewXP)
	}
	if first.Summary.LevelUp != nil {
		t.Errorf("Expected no level up, got %+v", first.Summary.LevelUp)
	}
	if len(first.Summary.Mistakes) != 1 {
		t.Errorf("Expected 1 mistake, got %d", len(first.Summary.Mistakes))
	}

	// Session 2: 3 of 10 correct → 30 xp, 110 total crosses 100.
	second := playSession(t, f, "amin", 10, 3)
	if second.Summary.XPEarned != 30 {
		t.Errorf("Expected 30 xp, got %d", second.Summary.XPEarned)
	}
	if second.Summary.LevelUp == nil {
		t.Fatal("Expected a level up")
	}
	if second.Summary.LevelUp.Level != 2 || second.Summary.LevelUp.Title != "Novice" || second.Summary.LevelUp.Reward != 50 {
		t.Errorf("Unexpected level up payload: %+v", second.Summary.LevelUp)
	}

	saved := f.players.players["amin"]
	if saved.XP != 110 {
		t.Errorf("Expected persisted xp 110, got %d", saved.XP)
	}
	if saved.Diamonds != 50 {
		t.Errorf("Expected reward credited, got %d diamonds", saved.Diamonds)
	}

	if len(f.records.records) != 2 {
		t.Fatalf("Expected 2 session records, got %d", len(f.records.records))
	}
	if f.records.records[1].XPEarned != 30 || !f.records.records[1].LeveledUp {
		t.Errorf("Unexpected second record: %+v", f.records.records[1])
	}

	levelUps := 0
	for _, e := range f.events.events {
		if e == "player.levelup" {
			levelUps++
		}
	}
	if levelUps != 1 {
		t.Errorf("Expected exactly one levelup event, got %d", levelUps)
	}
}

func TestSessionEvictedAfterCompletion(t *testing.T) {
	f := newFixture(versesFor(12))

	start, err := f.sessions.Start(context.Background(), "amin", "1", 2, "ar.alafasy")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	playSessionByID(t, f, start)

	if _, err := f.sessions.Answer(context.Background(), start.SessionID, "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after completion, got %v", err)
	}
	if _, _, err := f.sessions.Question(start.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound from Question, got %v", err)
	}
}

func playSessionByID(t *testing.T, f *fixture, start *StartResult) {
	t.Helper()
	for {
		result, err := f.sessions.Answer(context.Background(), start.SessionID, "wrong")
		if err != nil {
			t.Fatalf("Answer failed: %v", err)
		}
		if result.Completed {
			return
		}
	}
}

func TestSaveFailureReportedNotFatal(t *testing.T) {
	f := newFixture(versesFor(12))
	f.players.saveErr = errors.New("disk full")

	result := playSession(t, f, "amin", 2, 2)
	if result.Summary.SaveError == "" {
		t.Error("Expected save failure to be reported in the summary")
	}
	if result.Summary.XPEarned != 100 {
		t.Errorf("Expected xp still computed, got %d", result.Summary.XPEarned)
	}
}

func TestCompletionLoadFailurePreservesStoredProfile(t *testing.T) {
	f := newFixture(versesFor(12))
	f.players.players["amin"] = models.Player{
		Name:      "amin",
		XP:        400,
		Diamonds:  500,
		Inventory: []string{"bg_dark"},
	}

	start, err := f.sessions.Start(context.Background(), "amin", "604", 2, "ar.alafasy")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Storage goes down mid-session.
	f.players.findErr = errors.New("storage down")

	question := start.Question
	var last *AnswerResult
	for i := 0; i < 2; i++ {
		last, err = f.sessions.Answer(context.Background(), start.SessionID, correctFor(t, question.Prompt))
		if err != nil {
			t.Fatalf("Answer failed: %v", err)
		}
		if last.NextQuestion != nil {
			question = *last.NextQuestion
		}
	}
	if !last.Completed || last.Summary == nil {
		t.Fatal("Expected session to complete with a summary")
	}
	if last.Summary.SaveError == "" {
		t.Error("Expected the load failure to be reported")
	}
	if last.Summary.XPEarned != 100 {
		t.Errorf("Expected xp still computed, got %d", last.Summary.XPEarned)
	}

	stored := f.players.players["amin"]
	if stored.XP != 400 || stored.Diamonds != 500 || len(stored.Inventory) != 1 {
		t.Errorf("Stored profile must survive a load failure untouched, got %+v", stored)
	}
	if f.players.saves != 0 {
		t.Errorf("Expected no save against an unreadable store, got %d", f.players.saves)
	}
}

func TestStartReplacesStaleSession(t *testing.T) {
	f := newFixture(versesFor(12))

	first, err := f.sessions.Start(context.Background(), "amin", "1", 5, "ar.alafasy")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	second, err := f.sessions.Start(context.Background(), "amin", "2", 5, "ar.alafasy")
	if err != nil {
		t.Fatalf("Second start failed: %v", err)
	}

	if _, _, err := f.sessions.Question(first.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected stale session to be evicted, got %v", err)
	}
	if _, _, err := f.sessions.Question(second.SessionID); err != nil {
		t.Errorf("Expected live session, got %v", err)
	}
}

func TestStartNormalizesPlayerKey(t *testing.T) {
	f := newFixture(versesFor(12))

	first, err := f.sessions.Start(context.Background(), "Amin", "1", 5, "ar.alafasy")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	second, err := f.sessions.Start(context.Background(), "  amin ", "2", 5, "ar.alafasy")
	if err != nil {
		t.Fatalf("Second start failed: %v", err)
	}

	// Same stored profile, so the differently-cased name must evict
	// the earlier session rather than run alongside it.
	if _, _, err := f.sessions.Question(first.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected case-variant session to be evicted, got %v", err)
	}
	if _, _, err := f.sessions.Question(second.SessionID); err != nil {
		t.Errorf("Expected live session, got %v", err)
	}
	if len(f.sessions.sessions) != 1 {
		t.Errorf("Expected a single live session, got %d", len(f.sessions.sessions))
	}
}

func TestStorePurchaseFlow(t *testing.T) {
	players := newFakePlayerStore()
	players.players["amin"] = models.Player{Name: "amin", Diamonds: 50, Inventory: []string{}}
	events := &fakePublisher{}
	catalog := []models.StoreItem{
		{ID: "bg_dark", Name: "Dark theme", Price: 50},
		{ID: "qari_husary", Name: "Husary recitation", Price: 150},
	}
	store := NewStoreService(catalog, players, events)

	t.Run("catalog flags", func(t *testing.T) {
		view, err := store.Catalog(context.Background(), "amin")
		if err != nil {
			t.Fatalf("Catalog failed: %v", err)
		}
		if view.Diamonds != 50 {
			t.Errorf("Expected 50 diamonds, got %d", view.Diamonds)
		}
		if !view.Items[0].Affordable || view.Items[0].Owned {
			t.Errorf("Unexpected flags on affordable item: %+v", view.Items[0])
		}
		if view.Items[1].Affordable {
			t.Errorf("Expected husary unaffordable: %+v", view.Items[1])
		}
	})

	t.Run("successful purchase", func(t *testing.T) {
		result, err := store.Purchase(context.Background(), "amin", "bg_dark")
		if err != nil {
			t.Fatalf("Purchase failed: %v", err)
		}
		if result.Diamonds != 0 {
			t.Errorf("Expected 0 diamonds, got %d", result.Diamonds)
		}
		found := false
		for _, c := range result.Capabilities {
			if c == economy.CapThemeDark {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected dark theme capability, got %v", result.Capabilities)
		}
	})

	t.Run("repeat purchase rejected", func(t *testing.T) {
		_, err := store.Purchase(context.Background(), "amin", "bg_dark")
		if !errors.Is(err, economy.ErrAlreadyOwned) {
			t.Errorf("Expected ErrAlreadyOwned, got %v", err)
		}
		if players.players["amin"].Diamonds != 0 {
			t.Errorf("Diamonds must not change on rejection, got %d", players.players["amin"].Diamonds)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := store.Purchase(context.Background(), "amin", "qari_husary")
		if !errors.Is(err, economy.ErrInsufficientFunds) {
			t.Errorf("Expected ErrInsufficientFunds, got %v", err)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := store.Purchase(context.Background(), "amin", "mystery")
		if !errors.Is(err, ErrItemNotFound) {
			t.Errorf("Expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("unknown player", func(t *testing.T) {
		_, err := store.Purchase(context.Background(), "ghost", "bg_dark")
		if !errors.Is(err, repository.ErrPlayerNotFound) {
			t.Errorf("Expected ErrPlayerNotFound, got %v", err)
		}
	})
}
