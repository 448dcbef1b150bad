package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/google/uuid"
)

// In-memory repository fakes. The summary maintainer runs on its own
// goroutine, so every fake is mutex-guarded.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *user
	r.users[u.ID] = &u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeConversationRepo struct {
	mu    sync.Mutex
	convs map[uuid.UUID]*domain.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[uuid.UUID]*domain.Conversation)}
}

func (r *fakeConversationRepo) CreateIfAbsent(ctx context.Context, conv *domain.Conversation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[conv.ID]; ok {
		return false, nil
	}
	copied := *conv
	if copied.ParticipantNames == nil {
		copied.ParticipantNames = map[string]string{}
	}
	r.convs[copied.ID] = &copied
	return true, nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok {
		return nil, nil
	}
	return cloneConversation(conv), nil
}

func (r *fakeConversationRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Conversation
	for _, conv := range r.convs {
		if conv.HasParticipant(userID) {
			out = append(out, *cloneConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return activityTime(&out[i]).After(activityTime(&out[j]))
	})
	return out, nil
}

func activityTime(c *domain.Conversation) time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

func (r *fakeConversationRepo) ApplySummary(ctx context.Context, conversationID uuid.UUID, text string, senderID uuid.UUID, senderName string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[conversationID]
	if !ok {
		return nil
	}
	conv.LastMessage = text
	conv.LastMessageAt = &at
	if conv.ParticipantNames == nil {
		conv.ParticipantNames = map[string]string{}
	}
	conv.ParticipantNames[senderID.String()] = senderName
	if conv.InitiatorName == "" {
		conv.InitiatorName = senderName
	}
	return nil
}

func cloneConversation(c *domain.Conversation) *domain.Conversation {
	copied := *c
	copied.ParticipantNames = make(map[string]string, len(c.ParticipantNames))
	for k, v := range c.ParticipantNames {
		copied.ParticipantNames[k] = v
	}
	return &copied
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	// Stable keeps write order for identical timestamps, mirroring the
	// created_at,id ordering of the real store.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeMessageRepo) MarkInboundRead(ctx context.Context, conversationID, viewerID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for i := range r.msgs {
		m := &r.msgs[i]
		if m.ConversationID == conversationID && !m.Read && m.SenderID != viewerID {
			m.Read = true
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

type fakeListingRepo struct {
	mu      sync.Mutex
	parcels map[uuid.UUID]*domain.Parcel
	trips   map[uuid.UUID]*domain.CourierTrip
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{
		parcels: make(map[uuid.UUID]*domain.Parcel),
		trips:   make(map[uuid.UUID]*domain.CourierTrip),
	}
}

func (r *fakeListingRepo) CreateParcel(ctx context.Context, parcel *domain.Parcel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *parcel
	r.parcels[copied.ID] = &copied
	return nil
}

func (r *fakeListingRepo) GetParcelByID(ctx context.Context, id uuid.UUID) (*domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parcels[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakeListingRepo) ListParcels(ctx context.Context) ([]domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Parcel
	for _, p := range r.parcels {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeListingRepo) ListParcelsBySender(ctx context.Context, senderID uuid.UUID) ([]domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Parcel
	for _, p := range r.parcels {
		if p.SenderID == senderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) CreateTrip(ctx context.Context, trip *domain.CourierTrip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *trip
	r.trips[copied.ID] = &copied
	return nil
}

func (r *fakeListingRepo) GetTripByID(ctx context.Context, id uuid.UUID) (*domain.CourierTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *fakeListingRepo) ListTrips(ctx context.Context) ([]domain.CourierTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CourierTrip
	for _, t := range r.trips {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeListingRepo) ListTripsByCourier(ctx context.Context, courierID uuid.UUID) ([]domain.CourierTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CourierTrip
	for _, t := range r.trips {
		if t.CourierID == courierID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type notifierCall struct {
	kind       string
	convID     uuid.UUID
	messageIDs []uuid.UUID
}

type captureNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func (n *captureNotifier) NotifyNewMessage(conv *domain.Conversation, msg *domain.Message) {
	n.record(notifierCall{kind: "new", convID: conv.ID, messageIDs: []uuid.UUID{msg.ID}})
}

func (n *captureNotifier) NotifyMessagesRead(conv *domain.Conversation, readerID uuid.UUID, messageIDs []uuid.UUID) {
	n.record(notifierCall{kind: "read", convID: conv.ID, messageIDs: messageIDs})
}

func (n *captureNotifier) NotifyConversationUpdated(conv *domain.Conversation) {
	n.record(notifierCall{kind: "updated", convID: conv.ID})
}

func (n *captureNotifier) record(c notifierCall) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
}

func (n *captureNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	var total int
	for _, c := range n.calls {
		if c.kind == kind {
			total++
		}
	}
	return total
}
