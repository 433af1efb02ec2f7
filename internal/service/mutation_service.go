package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MiSArch/shoppingcart/internal/apperror"
	"github.com/MiSArch/shoppingcart/internal/auth"
	"github.com/MiSArch/shoppingcart/internal/cache"
	"github.com/MiSArch/shoppingcart/internal/domain"
	"github.com/MiSArch/shoppingcart/internal/repository"
)

type MutationService struct {
	users    repository.UserRepository
	variants repository.ProductVariantRepository
	cache    cache.CartCache
	log      *slog.Logger
}

func NewMutationService(users repository.UserRepository, variants repository.ProductVariantRepository, cartCache cache.CartCache, log *slog.Logger) *MutationService {
	return &MutationService{
		users:    users,
		variants: variants,
		cache:    cartCache,
		log:      log,
	}
}

// ReplaceCartItems atomically replaces the whole item set of the owner's cart
// with freshly minted items sharing one timestamp. A nil specs slice means
// no-op; the cart is returned unchanged. Validation fails the whole batch on
// the first product variant missing from the local projection.
func (s *MutationService) ReplaceCartItems(ctx context.Context, ownerID string, specs []domain.ShoppingCartItemSpec) (*domain.OwnedCart, error) {
	if err := auth.Authorize(ctx, ownerID); err != nil {
		return nil, err
	}

	if specs != nil {
		if err := s.validateVariants(ctx, specs); err != nil {
			return nil, err
		}
		if _, err := s.users.GetUser(ctx, ownerID); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		items := make([]domain.ShoppingCartItem, 0, len(specs))
		for _, spec := range specs {
			items = append(items, newCartItem(spec, now))
		}
		if err := s.users.ReplaceCartItems(ctx, ownerID, items, now); err != nil {
			return nil, err
		}
		s.invalidateCache(ownerID)
	}

	cart, err := s.users.GetCartByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &domain.OwnedCart{UserID: ownerID, ShoppingCart: *cart}, nil
}

// AddCartItem inserts a new item into the owner's cart. Creation is
// idempotent by product variant: an existing item referencing the same
// variant is returned unchanged, with no duplicate and no count increment.
// The check and the insert are separate round trips; a race between two
// concurrent calls for the same variant can insert two items. Accepted.
func (s *MutationService) AddCartItem(ctx context.Context, ownerID string, spec domain.ShoppingCartItemSpec) (*domain.ShoppingCartItem, error) {
	if err := auth.Authorize(ctx, ownerID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}
	exists, err := s.variants.VariantExists(ctx, spec.ProductVariantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NewMissingProductVariant(spec.ProductVariantID)
	}

	existing, err := s.users.FindItemByVariantAndOwner(ctx, spec.ProductVariantID, ownerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	item := newCartItem(spec, now)
	if err := s.users.AppendItem(ctx, ownerID, item, now); err != nil {
		return nil, err
	}
	s.invalidateCache(ownerID)
	return &item, nil
}

// UpdateItemCount sets the count of a single item after resolving and
// authorizing its owner, then re-reads the updated item.
func (s *MutationService) UpdateItemCount(ctx context.Context, itemID string, count uint64) (*domain.ShoppingCartItem, error) {
	user, err := s.users.FindItemOwner(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(ctx, user.ID); err != nil {
		return nil, err
	}

	if err := s.users.SetItemCount(ctx, itemID, count); err != nil {
		return nil, err
	}
	s.invalidateCache(user.ID)

	updated, err := s.users.FindItemOwner(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return projectCartItem(updated, itemID)
}

// DeleteItem removes an item from its owner's cart. The pull itself is
// idempotent; true is returned whether or not the item still existed.
func (s *MutationService) DeleteItem(ctx context.Context, itemID string) (bool, error) {
	user, err := s.users.FindItemOwner(ctx, itemID)
	if err != nil {
		return false, err
	}
	if err := auth.Authorize(ctx, user.ID); err != nil {
		return false, err
	}

	if err := s.users.RemoveItem(ctx, itemID); err != nil {
		return false, err
	}
	s.invalidateCache(user.ID)
	return true, nil
}

// validateVariants batch-checks all referenced product variants with one
// query and fails on the first missing id.
func (s *MutationService) validateVariants(ctx context.Context, specs []domain.ShoppingCartItemSpec) error {
	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		ids = append(ids, spec.ProductVariantID)
	}
	missing, absent, err := s.variants.MissingVariant(ctx, ids)
	if err != nil {
		return err
	}
	if absent {
		return apperror.NewMissingProductVariant(missing)
	}
	return nil
}

func (s *MutationService) invalidateCache(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerID); err != nil {
		s.log.Warn("cart cache invalidate failed", "owner", ownerID, "error", err)
	}
}

func newCartItem(spec domain.ShoppingCartItemSpec, at time.Time) domain.ShoppingCartItem {
	return domain.ShoppingCartItem{
		ID:             uuid.NewString(),
		Count:          spec.Count,
		AddedAt:        at,
		ProductVariant: domain.ProductVariant{ID: spec.ProductVariantID},
	}
}
