package service

import (
	"context"
	"testing"
	"time"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messagingFixture struct {
	svc      *MessagingService
	convRepo *fakeConversationRepo
	msgRepo  *fakeMessageRepo
	listings *fakeListingRepo
	notifier *captureNotifier
	alice    *domain.User
	bob      *domain.User
}

func newMessagingFixture(t *testing.T) *messagingFixture {
	t.Helper()

	alice := &domain.User{ID: uuid.New(), Email: "alice@example.com", DisplayName: "Alice", Role: domain.RoleUser}
	bob := &domain.User{ID: uuid.New(), Email: "bob@example.com", DisplayName: "Bob", Role: domain.RoleUser}

	convRepo := newFakeConversationRepo()
	msgRepo := newFakeMessageRepo()
	listings := newFakeListingRepo()
	notifier := &captureNotifier{}

	svc := NewMessagingService(convRepo, msgRepo, newFakeUserRepo(alice, bob), listings, zerolog.Nop())
	svc.SetNotifier(notifier)

	return &messagingFixture{
		svc:      svc,
		convRepo: convRepo,
		msgRepo:  msgRepo,
		listings: listings,
		notifier: notifier,
		alice:    alice,
		bob:      bob,
	}
}

func (f *messagingFixture) addParcel(t *testing.T, senderID uuid.UUID) uuid.UUID {
	t.Helper()
	parcel := &domain.Parcel{
		ID:              uuid.New(),
		SenderID:        senderID,
		OriginCity:      "Berlin",
		DestinationCity: "Zagreb",
		ParcelType:      "Documents",
		CreatedAt:       time.Now(),
	}
	require.NoError(t, f.listings.CreateParcel(context.Background(), parcel))
	return parcel.ID
}

func TestStartOrGetConversation_UniquePerPair(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	first, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)

	// The reverse direction resolves to the same thread.
	second, err := f.svc.StartOrGetConversation(ctx, f.bob.ID, f.alice.ID, domain.ListingRef{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.convRepo.convs, 1)
	// The stored row keeps the original initiator ordering.
	assert.Equal(t, f.alice.ID, second.InitiatorID)
	assert.Equal(t, "Alice", second.InitiatorName)
	assert.Equal(t, "Bob", second.OtherUserName)
}

func TestStartOrGetConversation_RejectsSelf(t *testing.T) {
	f := newMessagingFixture(t)

	_, err := f.svc.StartOrGetConversation(context.Background(), f.alice.ID, f.alice.ID, domain.ListingRef{})
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestStartOrGetConversation_RejectsMissingIDs(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartOrGetConversation(ctx, uuid.Nil, f.bob.ID, domain.ListingRef{})
	assert.ErrorIs(t, err, ErrMissingParticipant)

	_, err = f.svc.StartOrGetConversation(ctx, f.alice.ID, uuid.Nil, domain.ListingRef{})
	assert.ErrorIs(t, err, ErrMissingParticipant)
}

func TestStartOrGetConversation_UnknownTarget(t *testing.T) {
	f := newMessagingFixture(t)

	_, err := f.svc.StartOrGetConversation(context.Background(), f.alice.ID, uuid.New(), domain.ListingRef{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStartOrGetConversation_UnknownListing(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	ghostParcel := uuid.New()
	_, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{ParcelID: &ghostParcel})
	assert.ErrorIs(t, err, ErrListingNotFound)

	ghostTrip := uuid.New()
	_, err = f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{CourierTripID: &ghostTrip})
	assert.ErrorIs(t, err, ErrListingNotFound)

	assert.Empty(t, f.convRepo.convs)
}

func TestStartOrGetConversation_ContextPartitioning(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	parcel1 := f.addParcel(t, f.bob.ID)
	parcel2 := f.addParcel(t, f.bob.ID)

	about1, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{ParcelID: &parcel1})
	require.NoError(t, err)
	about2, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{ParcelID: &parcel2})
	require.NoError(t, err)
	general, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)

	assert.NotEqual(t, about1.ID, about2.ID)
	assert.NotEqual(t, about1.ID, general.ID)
	assert.NotEqual(t, about2.ID, general.ID)
	assert.Len(t, f.convRepo.convs, 3)
}

func TestSendMessage_AppendsInOrder(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.SendMessage(ctx, f.alice.ID, conv.ID, text)
		require.NoError(t, err)
	}

	messages, err := f.svc.ListMessages(ctx, f.bob.ID, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Text)
	assert.Equal(t, "two", messages[1].Text)
	assert.Equal(t, "three", messages[2].Text)
	for _, m := range messages {
		assert.Equal(t, f.alice.ID, m.SenderID)
		assert.Equal(t, "Alice", m.DisplayName)
		assert.False(t, m.Read)
	}
}

func TestSendMessage_RejectsBlankText(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "   \n\t")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendMessage_RejectsOutsiders(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)

	mallory := &domain.User{ID: uuid.New(), DisplayName: "Mallory"}
	_, err = f.svc.SendMessage(ctx, mallory.ID, conv.ID, "let me in")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, uuid.New(), "hello?")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendMessage_SummaryMirror(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)

	before := time.Now()
	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "Hello")
	require.NoError(t, err)

	// The summary write is asynchronous relative to the message append.
	require.Eventually(t, func() bool {
		stored, err := f.convRepo.GetByID(ctx, conv.ID)
		return err == nil && stored != nil && stored.LastMessage == "Hello"
	}, time.Second, 5*time.Millisecond)

	stored, err := f.convRepo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageAt)
	assert.False(t, stored.LastMessageAt.Before(before))
	assert.Equal(t, "Alice", stored.ParticipantNames[f.alice.ID.String()])
}

func TestSummary_InitiatorNameFirstWriterWins(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	// A conversation that predates the name hints.
	conv := &domain.Conversation{
		ID:          domain.ConversationID(f.alice.ID, f.bob.ID, domain.ListingRef{}),
		InitiatorID: f.alice.ID,
		RecipientID: f.bob.ID,
		CreatedAt:   time.Now(),
	}
	_, err := f.convRepo.CreateIfAbsent(ctx, conv)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.bob.ID, conv.ID, "first")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, _ := f.convRepo.GetByID(ctx, conv.ID)
		return stored != nil && stored.InitiatorName == "Bob"
	}, time.Second, 5*time.Millisecond)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "second")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, _ := f.convRepo.GetByID(ctx, conv.ID)
		return stored != nil && stored.LastMessage == "second"
	}, time.Second, 5*time.Millisecond)

	stored, err := f.convRepo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", stored.InitiatorName)
	assert.Equal(t, "Alice", stored.ParticipantNames[f.alice.ID.String()])
	assert.Equal(t, "Bob", stored.ParticipantNames[f.bob.ID.String()])
}

func TestMarkInboundRead_Idempotent(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "hi")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "you there?")
	require.NoError(t, err)

	ids, err := f.svc.MarkInboundRead(ctx, f.bob.ID, conv.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	// Second pass touches nothing and emits no event.
	ids, err = f.svc.MarkInboundRead(ctx, f.bob.ID, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 1, f.notifier.count("read"))

	messages, err := f.svc.ListMessages(ctx, f.bob.ID, conv.ID)
	require.NoError(t, err)
	for _, m := range messages {
		assert.True(t, m.Read)
	}
}

func TestMarkInboundRead_SkipsOwnMessages(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "hi")
	require.NoError(t, err)

	ids, err := f.svc.MarkInboundRead(ctx, f.alice.ID, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	messages, err := f.svc.ListMessages(ctx, f.alice.ID, conv.ID)
	require.NoError(t, err)
	assert.False(t, messages[0].Read)
}

func TestScenario_ReplyReusesConversation(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "Hi")
	require.NoError(t, err)

	// Bob opens the thread from his side.
	sameConv, err := f.svc.StartOrGetConversation(ctx, f.bob.ID, f.alice.ID, domain.ListingRef{})
	require.NoError(t, err)
	require.Equal(t, conv.ID, sameConv.ID)

	_, err = f.svc.MarkInboundRead(ctx, f.bob.ID, conv.ID)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.bob.ID, conv.ID, "Hey")
	require.NoError(t, err)

	messages, err := f.svc.ListMessages(ctx, f.alice.ID, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Hi", messages[0].Text)
	assert.True(t, messages[0].Read)
	assert.Equal(t, "Hey", messages[1].Text)

	require.Eventually(t, func() bool {
		stored, _ := f.convRepo.GetByID(ctx, conv.ID)
		return stored != nil && stored.LastMessage == "Hey"
	}, time.Second, 5*time.Millisecond)
}

func TestScenario_TwoParcelsTwoThreads(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	parcel1 := f.addParcel(t, f.bob.ID)
	parcel2 := f.addParcel(t, f.bob.ID)

	conv1, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{ParcelID: &parcel1})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv1.ID, "interested")
	require.NoError(t, err)

	conv2, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{ParcelID: &parcel2})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.alice.ID, conv2.ID, "also interested")
	require.NoError(t, err)

	require.NotEqual(t, conv1.ID, conv2.ID)

	msgs1, err := f.svc.ListMessages(ctx, f.bob.ID, conv1.ID)
	require.NoError(t, err)
	msgs2, err := f.svc.ListMessages(ctx, f.bob.ID, conv2.ID)
	require.NoError(t, err)
	assert.Len(t, msgs1, 1)
	assert.Len(t, msgs2, 1)
	require.NotNil(t, conv1.ParcelID)
	require.NotNil(t, conv2.ParcelID)
	assert.Equal(t, parcel1, *conv1.ParcelID)
	assert.Equal(t, parcel2, *conv2.ParcelID)
}

func TestListConversations_OrderedByActivity(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	carol := &domain.User{ID: uuid.New(), Email: "carol@example.com", DisplayName: "Carol"}
	require.NoError(t, f.svc.userRepo.Create(ctx, carol))

	withBob, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, f.bob.ID, domain.ListingRef{})
	require.NoError(t, err)
	withCarol, err := f.svc.StartOrGetConversation(ctx, f.alice.ID, carol.ID, domain.ListingRef{})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, withBob.ID, "ping")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, _ := f.convRepo.GetByID(ctx, withBob.ID)
		return stored != nil && stored.LastMessageAt != nil
	}, time.Second, 5*time.Millisecond)

	convs, err := f.svc.ListConversations(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, withBob.ID, convs[0].ID)
	assert.Equal(t, withCarol.ID, convs[1].ID)
}
