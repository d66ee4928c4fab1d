package repomanager

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/conversations"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps all records in process memory. Data does
// not survive a restart.
//
// WithTx runs one transaction at a time and restores a snapshot when fn
// fails. Writes through repositories built from any other handle wait for
// the running transaction, so a rollback never discards them. Inside fn,
// only the handle passed to fn may be used for writes.
type InMemoryRepositoryManager struct {
	store *memoryStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: &memoryStore{
		users: map[int64]*models.User{},
		convs: map[int64]*models.Conversation{},
		now:   time.Now,
	}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

// memTx marks repositories created inside WithTx. It is never queried.
type memTx struct {
	dbx.DBTX
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(ctx, memTx{}); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

func inTx(db dbx.DBTX) bool {
	_, ok := db.(memTx)
	return ok
}

func (m *InMemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return memUsers{s: m.store, inTx: inTx(db)}
}

func (m *InMemoryRepositoryManager) Conversations(db dbx.DBTX) conversations.Repository {
	return memConversations{s: m.store, inTx: inTx(db)}
}

func (m *InMemoryRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return memMessages{s: m.store, inTx: inTx(db)}
}

type memoryStore struct {
	// txMu serializes transactions with writes made outside them.
	txMu                        sync.Mutex
	mu                          sync.Mutex
	nextUser, nextConv, nextMsg int64
	users                       map[int64]*models.User
	convs                       map[int64]*models.Conversation
	msgs                        []models.Message
	now                         func() time.Time
}

// write takes txMu for writes made outside a transaction and returns the
// matching unlock.
func (s *memoryStore) write(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type memorySnapshot struct {
	nextUser, nextConv, nextMsg int64
	users                       map[int64]models.User
	convs                       map[int64]models.Conversation
	msgs                        []models.Message
}

func (s *memoryStore) snapshot() memorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memorySnapshot{
		nextUser: s.nextUser, nextConv: s.nextConv, nextMsg: s.nextMsg,
		users: make(map[int64]models.User, len(s.users)),
		convs: make(map[int64]models.Conversation, len(s.convs)),
		msgs:  append([]models.Message(nil), s.msgs...),
	}
	for id, u := range s.users {
		snap.users[id] = *u
	}
	for id, c := range s.convs {
		snap.convs[id] = *c
	}
	return snap
}

func (s *memoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUser, s.nextConv, s.nextMsg = snap.nextUser, snap.nextConv, snap.nextMsg
	s.users = make(map[int64]*models.User, len(snap.users))
	for id, u := range snap.users {
		s.users[id] = &u
	}
	s.convs = make(map[int64]*models.Conversation, len(snap.convs))
	for id, c := range snap.convs {
		s.convs[id] = &c
	}
	s.msgs = snap.msgs
}

type memUsers struct {
	s    *memoryStore
	inTx bool
}

func (r memUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	defer r.s.write(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.s.nextUser++
	user.ID = r.s.nextUser
	user.CreatedAt = r.s.now().UTC()
	stored := *user
	r.s.users[user.ID] = &stored
	return user, nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) MarkLoggedIn(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *models.User) {
		u.IsLoggedIn = true
		u.LastLogin = &at
	})
}

func (r memUsers) MarkLoggedOut(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *models.User) {
		u.IsLoggedIn = false
		u.LastLogout = &at
	})
}

func (r memUsers) update(id int64, fn func(*models.User)) error {
	defer r.s.write(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

func (r memUsers) List(context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type memConversations struct {
	s    *memoryStore
	inTx bool
}

func (r memConversations) List(_ context.Context, ownerID int64) ([]*models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []*models.Conversation{}
	for _, c := range r.s.convs {
		if c.OwnerID == ownerID {
			cp := *c
			cp.Messages = []models.Message{}
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r memConversations) Get(_ context.Context, ownerID, id int64) (*models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.convs[id]
	if !ok || c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	cp := *c
	cp.Messages = []models.Message{}
	return &cp, nil
}

func (r memConversations) Create(_ context.Context, c *models.Conversation) (*models.Conversation, error) {
	defer r.s.write(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextConv++
	c.ID = r.s.nextConv
	c.CreatedAt = r.s.now().UTC()
	c.Messages = []models.Message{}
	stored := *c
	stored.Messages = nil
	r.s.convs[c.ID] = &stored
	return c, nil
}

func (r memConversations) Rename(_ context.Context, ownerID, id int64, name string) (*models.Conversation, error) {
	defer r.s.write(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.convs[id]
	if !ok || c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	c.Name = name
	cp := *c
	cp.Messages = []models.Message{}
	return &cp, nil
}

func (r memConversations) Delete(_ context.Context, ownerID, id int64) error {
	defer r.s.write(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.convs[id]
	if !ok || c.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.convs, id)

	kept := r.s.msgs[:0:0]
	for _, m := range r.s.msgs {
		if m.ConversationID != id {
			kept = append(kept, m)
		}
	}
	r.s.msgs = kept
	return nil
}

type memMessages struct {
	s    *memoryStore
	inTx bool
}

func (r memMessages) Create(_ context.Context, m *models.Message) (*models.Message, error) {
	defer r.s.write(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.convs[m.ConversationID]; !ok {
		return nil, common.ErrorNotFound
	}
	r.s.nextMsg++
	m.ID = r.s.nextMsg
	m.CreatedAt = r.s.now().UTC()
	r.s.msgs = append(r.s.msgs, *m)
	return m, nil
}

func (r memMessages) ListByConversation(_ context.Context, conversationID int64) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool { return m.ConversationID == conversationID }), nil
}

func (r memMessages) ListByOwner(_ context.Context, ownerID int64) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool {
		c, ok := r.s.convs[m.ConversationID]
		return ok && c.OwnerID == ownerID
	}), nil
}

// filter returns matching messages in id order; keep is called under the lock.
func (r memMessages) filter(keep func(models.Message) bool) []models.Message {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []models.Message{}
	for _, m := range r.s.msgs {
		if keep(m) {
			result = append(result, m)
		}
	}
	return result
}
