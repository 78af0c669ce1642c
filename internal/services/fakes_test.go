package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Dias221467/yumix/internal/models"
	"github.com/Dias221467/yumix/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryStore mirrors the filters of repository.NotificationRepository.
type memoryStore struct {
	mu     sync.Mutex
	items  map[primitive.ObjectID]models.Notification
	failOn string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: map[primitive.ObjectID]models.Notification{}}
}

var errBoom = errors.New("connection reset")

func (m *memoryStore) fail(op string) error {
	if m.failOn == op {
		return errBoom
	}
	return nil
}

func (m *memoryStore) Insert(_ context.Context, notif *models.Notification) error {
	if err := m.fail("insert"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	notif.ID = primitive.NewObjectID()
	m.items[notif.ID] = *notif
	return nil
}

func (m *memoryStore) FindRecent(_ context.Context, recipientID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	if err := m.fail("find"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.items {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) CountUnread(_ context.Context, recipientID primitive.ObjectID) (int64, error) {
	if err := m.fail("count"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.items {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) MarkRead(_ context.Context, recipientID, id primitive.ObjectID, now time.Time) (*models.Notification, error) {
	if err := m.fail("markRead"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok || n.RecipientID != recipientID {
		return nil, repository.ErrNotFound
	}
	n.Read = true
	n.UpdatedAt = now
	m.items[id] = n
	return &n, nil
}

func (m *memoryStore) MarkAllRead(_ context.Context, recipientID primitive.ObjectID, now time.Time) (int64, error) {
	if err := m.fail("markAll"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var modified int64
	for id, n := range m.items {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			n.UpdatedAt = now
			m.items[id] = n
			modified++
		}
	}
	return modified, nil
}

func (m *memoryStore) Delete(_ context.Context, recipientID, id primitive.ObjectID) error {
	if err := m.fail("delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok || n.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryStore) DeleteForRecipient(_ context.Context, recipientID primitive.ObjectID, cutoff *time.Time) (int64, error) {
	if err := m.fail("deleteForRecipient"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, n := range m.items {
		if n.RecipientID != recipientID {
			continue
		}
		if cutoff != nil && !n.CreatedAt.Before(*cutoff) {
			continue
		}
		delete(m.items, id)
		deleted++
	}
	return deleted, nil
}

func (m *memoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if err := m.fail("deleteOlder"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, n := range m.items {
		if n.CreatedAt.Before(cutoff) {
			delete(m.items, id)
			deleted++
		}
	}
	return deleted, nil
}

// seed stores a notification with an explicit creation time.
func (m *memoryStore) seed(recipientID primitive.ObjectID, createdAt time.Time, read bool) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.items[id] = models.Notification{
		ID:          id,
		RecipientID: recipientID,
		Message:     "seeded",
		Type:        models.AdminTypeInfo,
		Read:        read,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	return id
}

func (m *memoryStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memoryStore) get(id primitive.ObjectID) (models.Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	return n, ok
}

type memoryDirectory struct {
	recipients map[primitive.ObjectID]models.Recipient
	err        error
}

func newDirectory(recipients ...models.Recipient) *memoryDirectory {
	d := &memoryDirectory{recipients: map[primitive.ObjectID]models.Recipient{}}
	for _, r := range recipients {
		d.recipients[r.ID] = r
	}
	return d
}

func (d *memoryDirectory) GetByID(_ context.Context, id primitive.ObjectID) (*models.Recipient, error) {
	if d.err != nil {
		return nil, d.err
	}
	r, ok := d.recipients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}
