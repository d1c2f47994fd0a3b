package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jominki354/hotstinder/models"
	"github.com/jominki354/hotstinder/repositories"
)

// fakeStore — общее in-memory состояние всех фейковых репозиториев.
// fakeTxManager снимает с него снапшот перед транзакцией и восстанавливает
// при ошибке, так что атомарность коммита проверяется честно.
type fakeStore struct {
	mu sync.Mutex

	users   map[int]*models.User
	matches map[int]*models.Match
	players []*models.MatchPlayer
	stats   []*models.PlayerStat
	changes []*models.MmrChange
	events  []*models.EventLog

	nextID int

	// failOn — имя операции, на которой следующая запись вернёт failErr.
	failOn  string
	failErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[int]*models.User),
		matches: make(map[int]*models.Match),
		nextID:  1,
	}
}

func (s *fakeStore) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *fakeStore) maybeFail(op string) error {
	if s.failOn == op && s.failErr != nil {
		return s.failErr
	}
	return nil
}

func (s *fakeStore) addUser(battleTag string, ratingValue int) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:        s.id(),
		BattleTag: battleTag,
		Role:      models.RolePlayer,
		Rating:    ratingValue,
		CreatedAt: time.Now(),
	}
	s.users[u.ID] = u
	return u
}

type storeSnapshot struct {
	users   map[int]*models.User
	matches map[int]*models.Match
	players []*models.MatchPlayer
	stats   []*models.PlayerStat
	changes []*models.MmrChange
	events  []*models.EventLog
	nextID  int
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		users:   make(map[int]*models.User, len(s.users)),
		matches: make(map[int]*models.Match, len(s.matches)),
		nextID:  s.nextID,
	}
	for id, u := range s.users {
		cp := *u
		snap.users[id] = &cp
	}
	for id, m := range s.matches {
		cp := *m
		snap.matches[id] = &cp
	}
	for _, p := range s.players {
		cp := *p
		snap.players = append(snap.players, &cp)
	}
	for _, st := range s.stats {
		cp := *st
		snap.stats = append(snap.stats, &cp)
	}
	for _, c := range s.changes {
		cp := *c
		snap.changes = append(snap.changes, &cp)
	}
	for _, e := range s.events {
		cp := *e
		snap.events = append(snap.events, &cp)
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.users = snap.users
	s.matches = snap.matches
	s.players = snap.players
	s.stats = snap.stats
	s.changes = snap.changes
	s.events = snap.events
	s.nextID = snap.nextID
}

// fakeTxManager выполняет fn под общим мьютексом стора и откатывает
// состояние при ошибке.
type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type fakeUserRepository struct {
	store *fakeStore
}

func (r *fakeUserRepository) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	if err := r.store.maybeFail("user.create"); err != nil {
		return err
	}
	for _, u := range r.store.users {
		if strings.EqualFold(u.BattleTag, user.BattleTag) {
			return repositories.ErrUserBattleTagConflict
		}
	}
	user.ID = r.store.id()
	user.CreatedAt = time.Now()
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepository) GetByBattleTag(ctx context.Context, exec repositories.SQLExecutor, battleTag string) (*models.User, error) {
	for _, u := range r.store.users {
		if strings.EqualFold(u.BattleTag, battleTag) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepository) GetRatingForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (int, error) {
	if err := r.store.maybeFail("user.lock"); err != nil {
		return 0, err
	}
	u, ok := r.store.users[id]
	if !ok {
		return 0, repositories.ErrUserNotFound
	}
	return u.Rating, nil
}

func (r *fakeUserRepository) ApplyMatchResult(ctx context.Context, exec repositories.SQLExecutor, id int, newRating int, won bool) error {
	if err := r.store.maybeFail("user.apply"); err != nil {
		return err
	}
	u, ok := r.store.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Rating = newRating
	if won {
		u.Wins++
	} else {
		u.Losses++
	}
	return nil
}

func (r *fakeUserRepository) ListTopByRating(ctx context.Context, exec repositories.SQLExecutor, limit, offset int) ([]*models.User, error) {
	all := make([]*models.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Rating != all[j].Rating {
			return all[i].Rating > all[j].Rating
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return []*models.User{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeUserRepository) Count(ctx context.Context, exec repositories.SQLExecutor) (int, error) {
	return len(r.store.users), nil
}

type fakeMatchRepository struct {
	store *fakeStore
}

func (r *fakeMatchRepository) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if err := r.store.maybeFail("match.create"); err != nil {
		return err
	}
	match.ID = r.store.id()
	match.CreatedAt = time.Now()
	cp := *match
	r.store.matches[match.ID] = &cp
	return nil
}

func (r *fakeMatchRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepository) List(ctx context.Context, exec repositories.SQLExecutor, status *models.MatchStatus, limit, offset int) ([]*models.Match, error) {
	all := make([]*models.Match, 0, len(r.store.matches))
	for _, m := range r.store.matches {
		if status != nil && m.Status != *status {
			continue
		}
		cp := *m
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= len(all) {
		return []*models.Match{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeMatchRepository) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, from, to models.MatchStatus) error {
	if err := r.store.maybeFail("match.update_status"); err != nil {
		return err
	}
	m, ok := r.store.matches[id]
	if !ok || m.Status != from {
		return repositories.ErrMatchStatusConflict
	}
	m.Status = to
	return nil
}

func (r *fakeMatchRepository) SetStarted(ctx context.Context, exec repositories.SQLExecutor, id int, startedAt time.Time) error {
	if err := r.store.maybeFail("match.set_started"); err != nil {
		return err
	}
	m, ok := r.store.matches[id]
	if !ok || m.Status != models.StatusFull {
		return repositories.ErrMatchStatusConflict
	}
	m.Status = models.StatusInProgress
	m.StartedAt = &startedAt
	return nil
}

func (r *fakeMatchRepository) CompleteMatch(ctx context.Context, exec repositories.SQLExecutor, id int, winner models.Team, blueScore, redScore, durationSeconds int, completedAt time.Time) error {
	if err := r.store.maybeFail("match.complete"); err != nil {
		return err
	}
	m, ok := r.store.matches[id]
	if !ok || m.Status != models.StatusInProgress {
		return repositories.ErrMatchStatusConflict
	}
	m.Status = models.StatusCompleted
	m.Winner = &winner
	m.BlueScore = &blueScore
	m.RedScore = &redScore
	m.DurationSeconds = &durationSeconds
	m.CompletedAt = &completedAt
	return nil
}

func (r *fakeMatchRepository) SetCancelled(ctx context.Context, exec repositories.SQLExecutor, id int, from models.MatchStatus, completedAt time.Time) error {
	if err := r.store.maybeFail("match.cancel"); err != nil {
		return err
	}
	m, ok := r.store.matches[id]
	if !ok || m.Status != from {
		return repositories.ErrMatchStatusConflict
	}
	m.Status = models.StatusCancelled
	m.CompletedAt = &completedAt
	return nil
}

func (r *fakeMatchRepository) SetReplayKey(ctx context.Context, exec repositories.SQLExecutor, id int, key *string) error {
	m, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ReplayKey = key
	return nil
}

func (r *fakeMatchRepository) ListStaleInProgress(ctx context.Context, exec repositories.SQLExecutor, cutoff time.Time) ([]int, error) {
	ids := make([]int, 0)
	for _, m := range r.store.matches {
		if m.Status == models.StatusInProgress && m.StartedAt != nil && m.StartedAt.Before(cutoff) {
			ids = append(ids, m.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

type fakeMatchPlayerRepository struct {
	store *fakeStore
}

func (r *fakeMatchPlayerRepository) Create(ctx context.Context, exec repositories.SQLExecutor, player *models.MatchPlayer) error {
	if err := r.store.maybeFail("player.create"); err != nil {
		return err
	}
	for _, mp := range r.store.players {
		if mp.MatchID == player.MatchID && mp.Participant().Key() == player.Participant().Key() {
			return repositories.ErrMatchPlayerConflict
		}
	}
	player.ID = r.store.id()
	player.JoinedAt = time.Now()
	cp := *player
	r.store.players = append(r.store.players, &cp)
	return nil
}

func (r *fakeMatchPlayerRepository) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) ([]*models.MatchPlayer, error) {
	out := make([]*models.MatchPlayer, 0)
	for _, mp := range r.store.players {
		if mp.MatchID == matchID {
			cp := *mp
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchPlayerRepository) Remove(ctx context.Context, exec repositories.SQLExecutor, matchID int, p models.Participant) error {
	if err := r.store.maybeFail("player.remove"); err != nil {
		return err
	}
	for i, mp := range r.store.players {
		if mp.MatchID == matchID && mp.Participant().Key() == p.Key() {
			r.store.players = append(r.store.players[:i], r.store.players[i+1:]...)
			return nil
		}
	}
	return repositories.ErrMatchPlayerNotFound
}

func (r *fakeMatchPlayerRepository) UpdateTeams(ctx context.Context, exec repositories.SQLExecutor, players []*models.MatchPlayer) error {
	if err := r.store.maybeFail("player.update_teams"); err != nil {
		return err
	}
	for _, updated := range players {
		for _, mp := range r.store.players {
			if mp.MatchID == updated.MatchID && mp.Participant().Key() == updated.Participant().Key() {
				mp.Team = updated.Team
			}
		}
	}
	return nil
}

type fakePlayerStatRepository struct {
	store *fakeStore
}

func (r *fakePlayerStatRepository) Create(ctx context.Context, exec repositories.SQLExecutor, stat *models.PlayerStat) error {
	if err := r.store.maybeFail("stat.create"); err != nil {
		return err
	}
	stat.ID = r.store.id()
	stat.CreatedAt = time.Now()
	cp := *stat
	r.store.stats = append(r.store.stats, &cp)
	return nil
}

func (r *fakePlayerStatRepository) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) ([]*models.PlayerStat, error) {
	out := make([]*models.PlayerStat, 0)
	for _, st := range r.store.stats {
		if st.MatchID == matchID {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePlayerStatRepository) ListByUser(ctx context.Context, exec repositories.SQLExecutor, userID int, limit int) ([]*models.PlayerStat, error) {
	out := make([]*models.PlayerStat, 0)
	for i := len(r.store.stats) - 1; i >= 0 && len(out) < limit; i-- {
		st := r.store.stats[i]
		if st.UserID != nil && *st.UserID == userID {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeMmrChangeRepository struct {
	store *fakeStore
}

func (r *fakeMmrChangeRepository) Create(ctx context.Context, exec repositories.SQLExecutor, change *models.MmrChange) error {
	if err := r.store.maybeFail("change.create"); err != nil {
		return err
	}
	if change.After != change.Before+change.Change {
		return repositories.ErrMmrChangeInvalid
	}
	change.ID = r.store.id()
	change.CreatedAt = time.Now()
	cp := *change
	r.store.changes = append(r.store.changes, &cp)
	return nil
}

func (r *fakeMmrChangeRepository) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) ([]*models.MmrChange, error) {
	out := make([]*models.MmrChange, 0)
	for _, c := range r.store.changes {
		if c.MatchID == matchID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMmrChangeRepository) ListByUser(ctx context.Context, exec repositories.SQLExecutor, userID int, limit int) ([]*models.MmrChange, error) {
	out := make([]*models.MmrChange, 0)
	for i := len(r.store.changes) - 1; i >= 0 && len(out) < limit; i-- {
		c := r.store.changes[i]
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeEventLogRepository struct {
	store *fakeStore
}

func (r *fakeEventLogRepository) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.EventLog) error {
	if err := r.store.maybeFail("event.append"); err != nil {
		return err
	}
	entry.ID = r.store.id()
	entry.CreatedAt = time.Now()
	cp := *entry
	r.store.events = append(r.store.events, &cp)
	return nil
}

func (r *fakeEventLogRepository) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int, limit int) ([]*models.EventLog, error) {
	out := make([]*models.EventLog, 0)
	for _, e := range r.store.events {
		if e.MatchID == matchID {
			cp := *e
			out = append(out, &cp)
		}
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// recordingBroadcaster копит уведомления для проверок в тестах.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) BroadcastMatchUpdate(matchID int, eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func (b *recordingBroadcaster) has(eventType string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e == eventType {
			return true
		}
	}
	return false
}
