// Package event consumes asynchronous domain events pushed by the event bus
// over HTTP and applies the corresponding projection updates. Handlers bypass
// business validation: events are authoritative. Delivery is at-least-once
// with no ordering guarantee, so every handler tolerates redelivery.
package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MiSArch/shoppingcart/internal/apperror"
	"github.com/MiSArch/shoppingcart/internal/cache"
	"github.com/MiSArch/shoppingcart/internal/domain"
	"github.com/MiSArch/shoppingcart/internal/repository"
)

// Topics this service subscribes to.
const (
	TopicUserCreated           = "user/user/created"
	TopicProductVariantCreated = "catalog/product-variant/created"
	TopicOrderCreated          = "order/order/created"
)

const busName = "pubsub"

// Subscription describes one topic delivery the service requests from the bus.
type Subscription struct {
	BusName string `json:"busName"`
	Topic   string `json:"topic"`
	Route   string `json:"route"`
}

// Envelope is the outer message wrapper delivered by the bus.
type Envelope[T any] struct {
	Topic string `json:"topic"`
	Data  T      `json:"data"`
}

// EntityEventData is the relevant part of creation events: the new entity's id.
type EntityEventData struct {
	ID string `json:"id"`
}

// OrderEventData is the relevant part of order creation events.
type OrderEventData struct {
	ID         string               `json:"id"`
	UserID     string               `json:"userId"`
	OrderItems []OrderItemEventData `json:"orderItems"`
}

type OrderItemEventData struct {
	ShoppingCartItemID string `json:"shoppingCartItemId"`
	Count              uint64 `json:"count"`
}

// TopicEventResponse acknowledges a delivery; status 0 means handled.
type TopicEventResponse struct {
	Status int `json:"status"`
}

type Service struct {
	users    repository.UserRepository
	variants repository.ProductVariantRepository
	cache    cache.CartCache
	log      *slog.Logger
}

func NewService(users repository.UserRepository, variants repository.ProductVariantRepository, cartCache cache.CartCache, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		variants: variants,
		cache:    cartCache,
		log:      log,
	}
}

// RegisterRoutes mounts the endpoints the bus delivers to.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/subscriptions", s.ListTopicSubscriptions)
	r.Post("/on-topic-event", s.OnTopicEvent)
	r.Post("/on-order-creation-event", s.OnOrderCreationEvent)
}

// ListTopicSubscriptions returns the fixed set of topic/route triples this
// service wants delivered.
func (s *Service) ListTopicSubscriptions(w http.ResponseWriter, _ *http.Request) {
	subscriptions := []Subscription{
		{BusName: busName, Topic: TopicUserCreated, Route: "/on-topic-event"},
		{BusName: busName, Topic: TopicProductVariantCreated, Route: "/on-topic-event"},
		{BusName: busName, Topic: TopicOrderCreated, Route: "/on-order-creation-event"},
	}
	respondJSON(w, subscriptions)
}

// OnTopicEvent handles entity creation events. Redelivered events are treated
// as success: the projection insert is a no-op on duplicate ids.
func (s *Service) OnTopicEvent(w http.ResponseWriter, r *http.Request) {
	var event Envelope[EntityEventData]
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.log.Error("failed to decode topic event", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.log.Info("received topic event", "topic", event.Topic, "id", event.Data.ID)

	var err error
	switch event.Topic {
	case TopicProductVariantCreated:
		err = s.variants.InsertProductVariant(r.Context(), domain.ProductVariant{ID: event.Data.ID})
	case TopicUserCreated:
		err = s.users.InsertUser(r.Context(), domain.NewUser(event.Data.ID))
	default:
		err = apperror.NewUnroutableEvent(event.Topic)
	}
	if err != nil {
		// Diagnostic detail stays in the log; the bus only sees the status
		// code and redelivers.
		s.log.Error("failed to handle topic event", "topic", event.Topic, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	respondJSON(w, TopicEventResponse{})
}

// OnOrderCreationEvent removes every ordered item from the referenced owner's
// cart with a single filtered pull. Items already gone are skipped silently.
func (s *Service) OnOrderCreationEvent(w http.ResponseWriter, r *http.Request) {
	var event Envelope[OrderEventData]
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.log.Error("failed to decode order event", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.log.Info("received order event", "topic", event.Topic, "order", event.Data.ID, "user", event.Data.UserID)

	if event.Topic != TopicOrderCreated {
		s.log.Error("failed to handle order event", "error", apperror.NewUnroutableEvent(event.Topic))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	itemIDs := make([]string, 0, len(event.Data.OrderItems))
	for _, orderItem := range event.Data.OrderItems {
		itemIDs = append(itemIDs, orderItem.ShoppingCartItemID)
	}
	if err := s.users.RemoveItems(r.Context(), event.Data.UserID, itemIDs); err != nil {
		s.log.Error("failed to remove ordered items", "user", event.Data.UserID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.invalidateCache(event.Data.UserID)

	respondJSON(w, TopicEventResponse{})
}

func (s *Service) invalidateCache(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerID); err != nil {
		s.log.Warn("cart cache invalidate failed", "owner", ownerID, "error", err)
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
