package service

import (
	"context"
	"sync"
	"time"

	"emoji-pair-bot/internal/model"
	"emoji-pair-bot/internal/repository"
)

// fakeState is shared in-memory storage backing the fake stores. The
// fakes mirror the SQL repositories' semantics, including copy-on-read
// for sessions so callers never alias stored state.
type fakeState struct {
	mu        sync.Mutex
	users     map[int64]*model.User
	chats     map[int64]*model.Chat
	games     map[string]*model.GameSession
	userChats map[int64][]int64
}

func newFakeState() *fakeState {
	return &fakeState{
		users:     make(map[int64]*model.User),
		chats:     make(map[int64]*model.Chat),
		games:     make(map[string]*model.GameSession),
		userChats: make(map[int64][]int64),
	}
}

func (f *fakeState) userStore() *fakeUsers { return &fakeUsers{f} }
func (f *fakeState) chatStore() *fakeChats { return &fakeChats{f} }
func (f *fakeState) gameStore() *fakeGames { return &fakeGames{f} }

// session returns a snapshot of a stored session, or nil.
func (f *fakeState) session(gameID string) *model.GameSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.games[gameID]; ok {
		return copySession(s)
	}
	return nil
}

// user returns a snapshot of a stored user, or nil.
func (f *fakeState) user(userID int64) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		out := *u
		return &out
	}
	return nil
}

func copySession(s *model.GameSession) *model.GameSession {
	out := *s
	out.Grid = append([]model.Tile(nil), s.Grid...)
	out.Revealed = append([]int{}, s.Revealed...)
	out.Players = append([]model.PlayerStat(nil), s.Players...)
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}

type fakeUsers struct{ st *fakeState }

func (f *fakeUsers) GetOrCreate(_ context.Context, userID int64, username string) (*model.User, bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if u, ok := f.st.users[userID]; ok {
		out := *u
		return &out, false, nil
	}
	u := &model.User{UserID: userID, Username: username, Language: model.DefaultLanguage, CreatedAt: time.Now()}
	f.st.users[userID] = u
	out := *u
	return &out, true, nil
}

func (f *fakeUsers) GetByID(_ context.Context, userID int64) (*model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsers) UpdateUsername(_ context.Context, userID int64, username string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Username = username
	return nil
}

func (f *fakeUsers) IncrementMatchStats(_ context.Context, userID int64, pairs, points int64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PairsFound += pairs
	u.TotalPoints += points
	return nil
}

func (f *fakeUsers) IncrementGamesPlayed(_ context.Context, userID int64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.GamesPlayed++
	return nil
}

func (f *fakeUsers) RaiseBestScore(_ context.Context, userID int64, score int64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if score > u.BestScore {
		u.BestScore = score
	}
	return nil
}

func (f *fakeUsers) SetLanguage(_ context.Context, userID int64, code string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Language = code
	return nil
}

// ArmCooldown mirrors the repository's conditional UPDATE: zero matched
// rows means a refused arm whether the user is unknown or still hot, so
// an unknown user yields (false, nil) here too.
func (f *fakeUsers) ArmCooldown(_ context.Context, userID int64, nowMillis, untilMillis int64) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return false, nil
	}
	if u.CooldownUntil > nowMillis {
		return false, nil
	}
	u.CooldownUntil = untilMillis
	return true, nil
}

func (f *fakeUsers) TopByPoints(_ context.Context, limit int) ([]*model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := make([]*model.User, 0, len(f.st.users))
	for _, u := range f.st.users {
		c := *u
		out = append(out, &c)
	}
	sortUsersByPoints(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUsers) RankOf(_ context.Context, userID int64) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	var above int64
	for _, other := range f.st.users {
		if other.TotalPoints > u.TotalPoints {
			above++
		}
	}
	return above + 1, nil
}

func (f *fakeUsers) AddChat(_ context.Context, userID, chatID int64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, id := range f.st.userChats[userID] {
		if id == chatID {
			return nil
		}
	}
	f.st.userChats[userID] = append(f.st.userChats[userID], chatID)
	return nil
}

func (f *fakeUsers) ChatIDs(_ context.Context, userID int64) ([]int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return append([]int64(nil), f.st.userChats[userID]...), nil
}

func (f *fakeUsers) AllIDs(_ context.Context) ([]int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	ids := make([]int64, 0, len(f.st.users))
	for id := range f.st.users {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeChats struct{ st *fakeState }

func (f *fakeChats) Upsert(_ context.Context, chatID int64, title string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if c, ok := f.st.chats[chatID]; ok {
		c.Title = title
		c.LeftAt = nil
		return nil
	}
	f.st.chats[chatID] = &model.Chat{ChatID: chatID, Title: title, CreatedAt: time.Now()}
	return nil
}

func (f *fakeChats) GetByID(_ context.Context, chatID int64) (*model.Chat, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c, ok := f.st.chats[chatID]
	if !ok {
		return nil, repository.ErrChatNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeChats) IncrementGamePlayed(_ context.Context, chatID int64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c, ok := f.st.chats[chatID]
	if !ok {
		c = &model.Chat{ChatID: chatID, CreatedAt: time.Now()}
		f.st.chats[chatID] = c
	}
	c.GamesPlayed++
	c.TotalActivity++
	return nil
}

func (f *fakeChats) TopByActivity(_ context.Context, limit int) ([]*model.Chat, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := make([]*model.Chat, 0, len(f.st.chats))
	for _, c := range f.st.chats {
		cc := *c
		out = append(out, &cc)
	}
	sortChatsByActivity(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeChats) MarkLeft(_ context.Context, chatID int64, leftAt time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c, ok := f.st.chats[chatID]
	if !ok {
		return repository.ErrChatNotFound
	}
	c.LeftAt = &leftAt
	return nil
}

type fakeGames struct{ st *fakeState }

func (f *fakeGames) Create(_ context.Context, session *model.GameSession) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.games[session.GameID] = copySession(session)
	return nil
}

func (f *fakeGames) GetByID(_ context.Context, gameID string) (*model.GameSession, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.games[gameID]
	if !ok {
		return nil, repository.ErrGameNotFound
	}
	return copySession(s), nil
}

func (f *fakeGames) SetRevealed(_ context.Context, gameID string, revealed []int) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.games[gameID]
	if !ok || s.IsFinished {
		return repository.ErrGameNotFound
	}
	s.Revealed = append([]int{}, revealed...)
	return nil
}

func (f *fakeGames) ApplyResolution(_ context.Context, session *model.GameSession) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.games[session.GameID]
	if !ok || s.IsFinished {
		return repository.ErrGameNotFound
	}
	s.Grid = append([]model.Tile(nil), session.Grid...)
	s.Revealed = append([]int{}, session.Revealed...)
	s.PairsFound = session.PairsFound
	s.Score = session.Score
	s.Players = append([]model.PlayerStat(nil), session.Players...)
	return nil
}

func (f *fakeGames) Finish(_ context.Context, gameID string, finishedAt time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.games[gameID]
	if !ok || s.IsFinished {
		return repository.ErrGameNotFound
	}
	s.IsFinished = true
	t := finishedAt
	s.FinishedAt = &t
	return nil
}

func sortUsersByPoints(users []*model.User) {
	for i := 1; i < len(users); i++ {
		for j := i; j > 0 && userLess(users[j], users[j-1]); j-- {
			users[j], users[j-1] = users[j-1], users[j]
		}
	}
}

func userLess(a, b *model.User) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	return a.UserID < b.UserID
}

func sortChatsByActivity(chats []*model.Chat) {
	for i := 1; i < len(chats); i++ {
		for j := i; j > 0 && chatLess(chats[j], chats[j-1]); j-- {
			chats[j], chats[j-1] = chats[j-1], chats[j]
		}
	}
}

func chatLess(a, b *model.Chat) bool {
	if a.TotalActivity != b.TotalActivity {
		return a.TotalActivity > b.TotalActivity
	}
	return a.ChatID < b.ChatID
}
