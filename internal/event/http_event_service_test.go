package event

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiSArch/shoppingcart/internal/cache"
	"github.com/MiSArch/shoppingcart/internal/domain"
	"github.com/MiSArch/shoppingcart/internal/repository"
)

type stubUserRepository struct {
	m     sync.Mutex
	users map[string]*domain.User
	err   error
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{users: map[string]*domain.User{}}
}

func (s *stubUserRepository) InsertUser(_ context.Context, user *domain.User) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[user.ID]; ok {
		return nil
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepository) RemoveItems(_ context.Context, ownerID string, itemIDs []string) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	user, ok := s.users[ownerID]
	if !ok {
		return nil
	}
	remove := map[string]bool{}
	for _, id := range itemIDs {
		remove[id] = true
	}
	kept := user.ShoppingCart.Items[:0]
	for _, item := range user.ShoppingCart.Items {
		if !remove[item.ID] {
			kept = append(kept, item)
		}
	}
	user.ShoppingCart.Items = kept
	return nil
}

func (s *stubUserRepository) getUser(id string) *domain.User {
	s.m.Lock()
	defer s.m.Unlock()
	return s.users[id]
}

func (s *stubUserRepository) GetUser(context.Context, string) (*domain.User, error) {
	return nil, nil
}

func (s *stubUserRepository) GetCartByOwner(context.Context, string) (*domain.ShoppingCart, error) {
	return nil, nil
}

func (s *stubUserRepository) FindItemOwner(context.Context, string) (*domain.User, error) {
	return nil, nil
}

func (s *stubUserRepository) FindItemByVariantAndOwner(context.Context, string, string) (*domain.ShoppingCartItem, error) {
	return nil, nil
}

func (s *stubUserRepository) ReplaceCartItems(context.Context, string, []domain.ShoppingCartItem, time.Time) error {
	return nil
}

func (s *stubUserRepository) AppendItem(context.Context, string, domain.ShoppingCartItem, time.Time) error {
	return nil
}

func (s *stubUserRepository) SetItemCount(context.Context, string, uint64) error { return nil }

func (s *stubUserRepository) RemoveItem(context.Context, string) error { return nil }

func (s *stubUserRepository) ListUsers(context.Context, repository.PageArgs, string) ([]domain.User, int64, error) {
	return nil, 0, nil
}

func (s *stubUserRepository) CreateIndexes(context.Context) error { return nil }

type stubVariantRepository struct {
	m        sync.Mutex
	variants map[string]bool
	err      error
}

func newStubVariantRepository() *stubVariantRepository {
	return &stubVariantRepository{variants: map[string]bool{}}
}

func (s *stubVariantRepository) InsertProductVariant(_ context.Context, variant domain.ProductVariant) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	s.variants[variant.ID] = true
	return nil
}

func (s *stubVariantRepository) VariantExists(_ context.Context, id string) (bool, error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.variants[id], nil
}

func (s *stubVariantRepository) MissingVariant(context.Context, []string) (string, bool, error) {
	return "", false, nil
}

type stubCache struct {
	m       sync.Mutex
	deleted []string
}

func (s *stubCache) Get(context.Context, string) (*domain.ShoppingCart, error) {
	return nil, cache.ErrCacheMiss
}

func (s *stubCache) Set(context.Context, string, *domain.ShoppingCart) error { return nil }

func (s *stubCache) Delete(_ context.Context, ownerID string) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.deleted = append(s.deleted, ownerID)
	return nil
}

func (s *stubCache) deletedKeys() []string {
	s.m.Lock()
	defer s.m.Unlock()
	return append([]string(nil), s.deleted...)
}

func setupEventServer(t *testing.T) (*httptest.Server, *stubUserRepository, *stubVariantRepository, *stubCache) {
	t.Helper()
	users := newStubUserRepository()
	variants := newStubVariantRepository()
	cartCache := &stubCache{}

	svc := NewService(users, variants, cartCache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	svc.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, users, variants, cartCache
}

func postEvent(t *testing.T, srv *httptest.Server, route string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+route, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeResponse[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestListTopicSubscriptions(t *testing.T) {
	srv, _, _, _ := setupEventServer(t)

	resp, err := http.Get(srv.URL + "/subscriptions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	subs := decodeResponse[[]Subscription](t, resp)
	require.Len(t, subs, 3)
	assert.Equal(t, Subscription{BusName: "pubsub", Topic: TopicUserCreated, Route: "/on-topic-event"}, subs[0])
	assert.Equal(t, Subscription{BusName: "pubsub", Topic: TopicProductVariantCreated, Route: "/on-topic-event"}, subs[1])
	assert.Equal(t, Subscription{BusName: "pubsub", Topic: TopicOrderCreated, Route: "/on-order-creation-event"}, subs[2])
}

func TestOnTopicEvent_UserCreated(t *testing.T) {
	srv, users, _, _ := setupEventServer(t)
	userID := uuid.NewString()

	resp := postEvent(t, srv, "/on-topic-event", Envelope[EntityEventData]{
		Topic: TopicUserCreated,
		Data:  EntityEventData{ID: userID},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decodeResponse[TopicEventResponse](t, resp)
	assert.Equal(t, 0, ack.Status)

	created := users.getUser(userID)
	require.NotNil(t, created)
	assert.Empty(t, created.ShoppingCart.Items)
}

func TestOnTopicEvent_UserCreated_RedeliveryIsNoop(t *testing.T) {
	srv, users, _, _ := setupEventServer(t)
	userID := uuid.NewString()
	envelope := Envelope[EntityEventData]{Topic: TopicUserCreated, Data: EntityEventData{ID: userID}}

	resp := postEvent(t, srv, "/on-topic-event", envelope)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Seed the cart between deliveries, redelivery must not reset it
	item := domain.ShoppingCartItem{ID: uuid.NewString(), Count: 1, ProductVariant: domain.ProductVariant{ID: uuid.NewString()}}
	users.getUser(userID).ShoppingCart.Items = []domain.ShoppingCartItem{item}

	resp = postEvent(t, srv, "/on-topic-event", envelope)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Len(t, users.getUser(userID).ShoppingCart.Items, 1)
}

func TestOnTopicEvent_ProductVariantCreated(t *testing.T) {
	srv, _, variants, _ := setupEventServer(t)
	variantID := uuid.NewString()

	resp := postEvent(t, srv, "/on-topic-event", Envelope[EntityEventData]{
		Topic: TopicProductVariantCreated,
		Data:  EntityEventData{ID: variantID},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	exists, err := variants.VariantExists(context.Background(), variantID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOnTopicEvent_UnroutableTopic(t *testing.T) {
	srv, _, _, _ := setupEventServer(t)

	resp := postEvent(t, srv, "/on-topic-event", Envelope[EntityEventData]{
		Topic: "inventory/reservation/created",
		Data:  EntityEventData{ID: uuid.NewString()},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestOnTopicEvent_MalformedBody(t *testing.T) {
	srv, _, _, _ := setupEventServer(t)

	resp, err := http.Post(srv.URL+"/on-topic-event", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestOnTopicEvent_StorageFailure(t *testing.T) {
	srv, users, _, _ := setupEventServer(t)
	users.err = fmt.Errorf("write failed")

	resp := postEvent(t, srv, "/on-topic-event", Envelope[EntityEventData]{
		Topic: TopicUserCreated,
		Data:  EntityEventData{ID: uuid.NewString()},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestOnOrderCreationEvent_RemovesOrderedItems(t *testing.T) {
	srv, users, _, cartCache := setupEventServer(t)
	userID := uuid.NewString()
	ordered := domain.ShoppingCartItem{ID: uuid.NewString(), Count: 2, ProductVariant: domain.ProductVariant{ID: uuid.NewString()}}
	kept := domain.ShoppingCartItem{ID: uuid.NewString(), Count: 1, ProductVariant: domain.ProductVariant{ID: uuid.NewString()}}
	user := domain.NewUser(userID)
	user.ShoppingCart.Items = []domain.ShoppingCartItem{ordered, kept}
	require.NoError(t, users.InsertUser(context.Background(), user))

	resp := postEvent(t, srv, "/on-order-creation-event", Envelope[OrderEventData]{
		Topic: TopicOrderCreated,
		Data: OrderEventData{
			ID:     uuid.NewString(),
			UserID: userID,
			OrderItems: []OrderItemEventData{
				{ShoppingCartItemID: ordered.ID, Count: 2},
			},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decodeResponse[TopicEventResponse](t, resp)
	assert.Equal(t, 0, ack.Status)

	items := users.getUser(userID).ShoppingCart.Items
	require.Len(t, items, 1)
	assert.Equal(t, kept.ID, items[0].ID)

	assert.Equal(t, []string{userID}, cartCache.deletedKeys())
}

func TestOnOrderCreationEvent_RedeliveryIsNoop(t *testing.T) {
	srv, users, _, _ := setupEventServer(t)
	userID := uuid.NewString()
	ordered := domain.ShoppingCartItem{ID: uuid.NewString(), Count: 2, ProductVariant: domain.ProductVariant{ID: uuid.NewString()}}
	user := domain.NewUser(userID)
	user.ShoppingCart.Items = []domain.ShoppingCartItem{ordered}
	require.NoError(t, users.InsertUser(context.Background(), user))

	envelope := Envelope[OrderEventData]{
		Topic: TopicOrderCreated,
		Data: OrderEventData{
			ID:         uuid.NewString(),
			UserID:     userID,
			OrderItems: []OrderItemEventData{{ShoppingCartItemID: ordered.ID, Count: 2}},
		},
	}

	for i := 0; i < 2; i++ {
		resp := postEvent(t, srv, "/on-order-creation-event", envelope)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	assert.Empty(t, users.getUser(userID).ShoppingCart.Items)
}

func TestOnOrderCreationEvent_WrongTopic(t *testing.T) {
	srv, _, _, _ := setupEventServer(t)

	resp := postEvent(t, srv, "/on-order-creation-event", Envelope[OrderEventData]{
		Topic: TopicUserCreated,
		Data:  OrderEventData{ID: uuid.NewString(), UserID: uuid.NewString()},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
