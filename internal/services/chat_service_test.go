package services_test

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gebeya-market/internal/domain/chat"
	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/domain/user"
	"gebeya-market/internal/notify"
	"gebeya-market/internal/repository"
	"gebeya-market/internal/services"
	market_errors "gebeya-market/pkg/errors"
	"gebeya-market/pkg/logger"
)

type fakeUserRepo struct {
	users map[uuid.UUID]user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]user.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return user.User{}, market_errors.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (user.User, error) {
	for _, u := range r.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return user.User{}, market_errors.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u user.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return market_errors.ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

type fakeListingRepo struct {
	listings map[uuid.UUID]listing.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: map[uuid.UUID]listing.Listing{}}
}

func (r *fakeListingRepo) Create(_ context.Context, l *listing.Listing) error {
	r.listings[l.ID] = *l
	return nil
}

func (r *fakeListingRepo) GetByID(_ context.Context, id uuid.UUID) (listing.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return listing.Listing{}, market_errors.ErrNotFound
	}
	return l, nil
}

func (r *fakeListingRepo) Update(_ context.Context, l listing.Listing) error {
	r.listings[l.ID] = l
	return nil
}

func (r *fakeListingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	l, ok := r.listings[id]
	if !ok {
		return market_errors.ErrNotFound
	}
	l.Status = status
	r.listings[id] = l
	return nil
}

func (r *fakeListingRepo) ListActive(_ context.Context, _ repository.ListingFilter) ([]listing.Listing, int64, error) {
	out := make([]listing.Listing, 0)
	for _, l := range r.listings {
		if l.Status == listing.StatusActive {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeListingRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]listing.Listing, error) {
	out := make([]listing.Listing, 0)
	for _, l := range r.listings {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) GetCategories(_ context.Context) ([]listing.Category, error) {
	return nil, nil
}

func (r *fakeListingRepo) GetCategoryBySlug(_ context.Context, _ string) (listing.Category, error) {
	return listing.Category{}, market_errors.ErrNotFound
}

// fakeChatRepo keeps chats and messages in memory and reproduces the
// contract documented on ChatRepository: transactional appends, idempotent
// read-marking and the list ordering.
type fakeChatRepo struct {
	users    *fakeUserRepo
	listings *fakeListingRepo

	chats    map[uuid.UUID]chat.Chat
	messages map[uuid.UUID][]chat.Message

	// findMisses makes the next lookups report no chat even when one exists,
	// as seen by a creator racing against a concurrent commit.
	findMisses int
}

func newFakeChatRepo(users *fakeUserRepo, listings *fakeListingRepo) *fakeChatRepo {
	return &fakeChatRepo{
		users:    users,
		listings: listings,
		chats:    map[uuid.UUID]chat.Chat{},
		messages: map[uuid.UUID][]chat.Message{},
	}
}

func (r *fakeChatRepo) FindByListingAndBuyer(_ context.Context, listingID, buyerID uuid.UUID) (chat.Chat, error) {
	if r.findMisses > 0 {
		r.findMisses--
		return chat.Chat{}, market_errors.ErrNotFound
	}
	for _, c := range r.chats {
		if c.ListingID == listingID && c.BuyerID == buyerID {
			return c, nil
		}
	}
	return chat.Chat{}, market_errors.ErrNotFound
}

func (r *fakeChatRepo) Create(_ context.Context, c *chat.Chat) error {
	for _, existing := range r.chats {
		if existing.ListingID == c.ListingID && existing.BuyerID == c.BuyerID {
			return market_errors.ErrAlreadyExists
		}
	}
	r.chats[c.ID] = *c
	return nil
}

func (r *fakeChatRepo) GetByID(_ context.Context, id uuid.UUID) (chat.Chat, error) {
	c, ok := r.chats[id]
	if !ok {
		return chat.Chat{}, market_errors.ErrNotFound
	}
	return c, nil
}

func (r *fakeChatRepo) GetThread(ctx context.Context, id uuid.UUID) (chat.Chat, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return chat.Chat{}, err
	}

	if l, ok := r.listings.listings[c.ListingID]; ok {
		c.Listing = &l
	}
	if b, ok := r.users.users[c.BuyerID]; ok {
		c.Buyer = &b
	}
	if s, ok := r.users.users[c.SellerID]; ok {
		c.Seller = &s
	}
	c.Messages = r.sortedMessages(id)
	return c, nil
}

func (r *fakeChatRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]chat.Chat, error) {
	out := make([]chat.Chat, 0)
	for id, c := range r.chats {
		if !c.IsActive || (c.BuyerID != userID && c.SellerID != userID) {
			continue
		}
		full, err := r.GetThread(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, full)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case a.Valid && b.Valid:
			return a.Time.After(b.Time)
		case a.Valid:
			return true
		default:
			return false
		}
	})
	return out, nil
}

func (r *fakeChatRepo) AppendMessage(_ context.Context, m *chat.Message) error {
	c, ok := r.chats[m.ChatID]
	if !ok {
		return market_errors.ErrNotFound
	}
	r.messages[m.ChatID] = append(r.messages[m.ChatID], *m)
	c.LastMessageAt = sql.NullTime{Time: m.CreatedAt, Valid: true}
	r.chats[m.ChatID] = c
	return nil
}

func (r *fakeChatRepo) GetMessages(_ context.Context, chatID uuid.UUID, after *time.Time) ([]chat.Message, error) {
	out := make([]chat.Message, 0)
	for _, m := range r.sortedMessages(chatID) {
		if after != nil && !m.CreatedAt.After(*after) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeChatRepo) MarkMessagesRead(_ context.Context, chatID, readerID uuid.UUID, after *time.Time) error {
	msgs := r.messages[chatID]
	for i := range msgs {
		if msgs[i].SenderID == readerID || msgs[i].IsRead {
			continue
		}
		if after != nil && !msgs[i].CreatedAt.After(*after) {
			continue
		}
		msgs[i].IsRead = true
	}
	return nil
}

func (r *fakeChatRepo) CountUnreadForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for id, c := range r.chats {
		if !c.IsActive || (c.BuyerID != userID && c.SellerID != userID) {
			continue
		}
		for _, m := range r.messages[id] {
			if m.SenderID != userID && !m.IsRead {
				count++
			}
		}
	}
	return count, nil
}

func (r *fakeChatRepo) sortedMessages(chatID uuid.UUID) []chat.Message {
	msgs := append([]chat.Message(nil), r.messages[chatID]...)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

type chatFixture struct {
	service  *services.ChatService
	chats    *fakeChatRepo
	listings *fakeListingRepo
	users    *fakeUserRepo

	seller    user.User
	buyer     user.User
	listingID uuid.UUID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	users := newFakeUserRepo()
	listings := newFakeListingRepo()
	chats := newFakeChatRepo(users, listings)

	seller := user.User{ID: uuid.New(), FirstName: "Abebe", IsPhoneVerified: true}
	buyer := user.User{ID: uuid.New(), FirstName: "Sara"}
	users.users[seller.ID] = seller
	users.users[buyer.ID] = buyer

	l := listing.Listing{
		ID:     uuid.New(),
		UserID: seller.ID,
		Title:  "iPhone 14 Pro Max",
		Price:  85000,
		Status: listing.StatusActive,
	}
	listings.listings[l.ID] = l

	return &chatFixture{
		service:   services.NewChatService(chats, listings, users, nil, logger.NewNop(), false),
		chats:     chats,
		listings:  listings,
		users:     users,
		seller:    seller,
		buyer:     buyer,
		listingID: l.ID,
	}
}

func Test_GetOrCreateChat_is_idempotent_per_listing_and_buyer(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	second, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.chats.chats, 1)
	assert.Equal(t, "iPhone 14 Pro Max", first.ListingTitle)
	assert.Equal(t, "Abebe", first.OtherUserName)
	assert.False(t, first.IsSeller)
}

func Test_GetOrCreateChat_converges_after_losing_creation_race(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	winner := chat.Chat{
		ID:        uuid.New(),
		ListingID: f.listingID,
		BuyerID:   f.buyer.ID,
		SellerID:  f.seller.ID,
		IsActive:  true,
	}
	require.NoError(t, f.chats.Create(ctx, &winner))

	// The winner's chat is invisible to the first lookup, so the loser
	// attempts an insert and hits the unique pair constraint.
	f.chats.findMisses = 1

	got, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	assert.Equal(t, winner.ID, got.ID)
	assert.Len(t, f.chats.chats, 1)
}

func Test_GetOrCreateChat_rejects_chat_with_own_listing(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.GetOrCreateChat(context.Background(), f.listingID, f.seller.ID)

	assert.ErrorIs(t, err, market_errors.ErrInvalidOperation)
	assert.Empty(t, f.chats.chats)
}

func Test_GetOrCreateChat_unknown_listing_is_not_found(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.GetOrCreateChat(context.Background(), uuid.New(), f.buyer.ID)

	assert.ErrorIs(t, err, market_errors.ErrNotFound)
}

func Test_SendMessage_rejects_blank_text(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "   ", "")
	assert.ErrorIs(t, err, market_errors.ErrInvalidInput)
}

func Test_SendMessage_allows_image_without_text(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	view, err := f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "", "https://cdn.example.com/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photo.jpg", view.ImageURL)
}

func Test_SendMessage_rejects_non_participant(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = f.service.SendMessage(ctx, detail.ID, stranger, "hello", "")
	assert.ErrorIs(t, err, market_errors.ErrForbidden)
}

func Test_SendMessage_advances_last_activity_and_starts_unread(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	view, err := f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "selam, is this available?", "")
	require.NoError(t, err)

	assert.Equal(t, "selam, is this available?", view.Text)
	assert.True(t, view.IsMine)
	assert.False(t, view.IsRead)
	assert.Equal(t, "Sara", view.SenderName)

	stored := f.chats.chats[detail.ID]
	require.True(t, stored.LastMessageAt.Valid)
	assert.Equal(t, view.CreatedAt, stored.LastMessageAt.Time)
}

func Test_unread_count_rises_on_send_and_clears_on_read(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	for _, text := range []string{"selam", "is this available?", "I can pick it up today"} {
		_, err = f.service.SendMessage(ctx, detail.ID, f.buyer.ID, text, "")
		require.NoError(t, err)
	}

	count, err := f.service.UnreadCount(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// The sender carries no unread burden for their own messages.
	count, err = f.service.UnreadCount(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Opening the thread marks everything read.
	_, err = f.service.GetChatDetail(ctx, detail.ID, f.seller.ID)
	require.NoError(t, err)

	count, err = f.service.UnreadCount(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func Test_GetChatDetail_read_marking_is_idempotent(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "selam", "")
	require.NoError(t, err)

	first, err := f.service.GetChatDetail(ctx, detail.ID, f.seller.ID)
	require.NoError(t, err)
	second, err := f.service.GetChatDetail(ctx, detail.ID, f.seller.ID)
	require.NoError(t, err)

	require.Len(t, first.Messages, 1)
	assert.True(t, first.Messages[0].IsRead)
	assert.Equal(t, first.Messages, second.Messages)
}

func Test_GetChatDetail_rejects_non_participant(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	_, err = f.service.GetChatDetail(ctx, detail.ID, uuid.New())
	assert.ErrorIs(t, err, market_errors.ErrForbidden)
}

func Test_PollMessages_returns_only_messages_after_cursor(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	older, err := f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "first", "")
	require.NoError(t, err)

	// Force a strictly later timestamp for the second message.
	time.Sleep(2 * time.Millisecond)

	newer, err := f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "second", "")
	require.NoError(t, err)
	require.True(t, newer.CreatedAt.After(older.CreatedAt))

	cursor := older.CreatedAt
	views, err := f.service.PollMessages(ctx, detail.ID, f.seller.ID, &cursor)
	require.NoError(t, err)

	require.Len(t, views, 1)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.True(t, views[0].IsRead)

	// The older message stays unread: the cursor bounded the read-marking.
	count, err := f.service.UnreadCount(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_PollMessages_without_cursor_returns_whole_thread(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "one", "")
	require.NoError(t, err)
	_, err = f.service.SendMessage(ctx, detail.ID, f.seller.ID, "two", "")
	require.NoError(t, err)

	views, err := f.service.PollMessages(ctx, detail.ID, f.buyer.ID, nil)
	require.NoError(t, err)

	require.Len(t, views, 2)
	assert.Equal(t, "one", views[0].Text)
	assert.Equal(t, "two", views[1].Text)
}

func Test_ListChats_orders_by_activity_with_idle_chats_last(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	second := listing.Listing{
		ID:     uuid.New(),
		UserID: f.seller.ID,
		Title:  "Toyota Vitz 2018",
		Price:  1200000,
		Status: listing.StatusActive,
	}
	f.listings.listings[second.ID] = second

	idle, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	active, err := f.service.GetOrCreateChat(ctx, second.ID, f.buyer.ID)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, active.ID, f.buyer.ID, "still for sale?", "")
	require.NoError(t, err)

	summaries, err := f.service.ListChats(ctx, f.seller.ID)
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	assert.Equal(t, active.ID, summaries[0].ID)
	assert.Equal(t, idle.ID, summaries[1].ID)
	assert.Equal(t, 1, summaries[0].UnreadCount)
	assert.Equal(t, "still for sale?", summaries[0].LastMessage)
	assert.Nil(t, summaries[1].LastMessageAt)
	assert.True(t, summaries[0].IsSeller)
	assert.Equal(t, "Sara", summaries[0].OtherUserName)
}

func Test_chat_views_degrade_when_listing_row_is_gone(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	delete(f.listings.listings, f.listingID)

	got, err := f.service.GetChatDetail(ctx, detail.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deleted", got.ListingTitle)
	assert.Equal(t, float64(0), got.ListingPrice)

	summaries, err := f.service.ListChats(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Deleted", summaries[0].ListingTitle)
}

type captureNotifier struct {
	events chan notify.NewMessageEvent
}

func (n *captureNotifier) NotifyNewMessage(_ context.Context, event notify.NewMessageEvent) error {
	n.events <- event
	return nil
}

func notifyingFixture(t *testing.T) (*chatFixture, *captureNotifier) {
	t.Helper()

	f := newChatFixture(t)
	notifier := &captureNotifier{events: make(chan notify.NewMessageEvent, 1)}
	f.service = services.NewChatService(f.chats, f.listings, f.users, notifier, logger.NewNop(), false)

	// The counterpart needs a Telegram identity to be reachable.
	seller := f.users.users[f.seller.ID]
	seller.TelegramID = 7
	f.users.users[f.seller.ID] = seller

	return f, notifier
}

func Test_SendMessage_notifies_the_counterpart(t *testing.T) {
	f, notifier := notifyingFixture(t)
	ctx := context.Background()

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "selam, still available?", "")
	require.NoError(t, err)

	select {
	case event := <-notifier.events:
		assert.Equal(t, f.seller.ID, event.RecipientID)
		assert.Equal(t, int64(7), event.RecipientTelegramID)
		assert.Equal(t, "Sara", event.SenderName)
		assert.Equal(t, "iPhone 14 Pro Max", event.ListingTitle)
		assert.Equal(t, "selam, still available?", event.MessagePreview)
	case <-time.After(time.Second):
		t.Fatal("expected a counterpart notification")
	}
}

func Test_SendMessage_skips_recipients_with_notifications_disabled(t *testing.T) {
	f, notifier := notifyingFixture(t)
	ctx := context.Background()

	seller := f.users.users[f.seller.ID]
	seller.Settings = map[string]any{"notifications_enabled": false}
	f.users.users[f.seller.ID] = seller

	detail, err := f.service.GetOrCreateChat(ctx, f.listingID, f.buyer.ID)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, detail.ID, f.buyer.ID, "selam", "")
	require.NoError(t, err)

	select {
	case <-notifier.events:
		t.Fatal("recipient with notifications disabled must not be notified")
	case <-time.After(50 * time.Millisecond):
	}
}
