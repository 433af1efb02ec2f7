// Package service implements the read and write operations of the shopping
// cart aggregate on top of the projection store adapter.
package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/MiSArch/shoppingcart/internal/apperror"
	"github.com/MiSArch/shoppingcart/internal/auth"
	"github.com/MiSArch/shoppingcart/internal/cache"
	"github.com/MiSArch/shoppingcart/internal/domain"
	"github.com/MiSArch/shoppingcart/internal/pagination"
	"github.com/MiSArch/shoppingcart/internal/repository"
)

type QueryService struct {
	users repository.UserRepository
	cache cache.CartCache
	log   *slog.Logger
	sfg   singleflight.Group // Prevents cache stampede
}

func NewQueryService(users repository.UserRepository, cartCache cache.CartCache, log *slog.Logger) *QueryService {
	return &QueryService{
		users: users,
		cache: cartCache,
		log:   log,
	}
}

// GetCartByOwner returns the cart of the authenticated owner. This is the
// user-facing direct query and therefore identity-gated.
func (s *QueryService) GetCartByOwner(ctx context.Context, ownerID string) (*domain.OwnedCart, error) {
	if err := auth.Authorize(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.resolveCart(ctx, ownerID)
}

// ResolveUserEntity reconstructs a full user from its federation key. No
// caller-identity check: inter-service resolution is authenticated at the
// gateway, not re-checked here.
func (s *QueryService) ResolveUserEntity(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUser(ctx, id)
}

// GetCartItem returns a single cart item, locating the owning user first via
// an element-match projection and gating on the resolved owner.
func (s *QueryService) GetCartItem(ctx context.Context, itemID string) (*domain.ShoppingCartItem, error) {
	user, err := s.users.FindItemOwner(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(ctx, user.ID); err != nil {
		return nil, err
	}
	return projectCartItem(user, itemID)
}

// ResolveCartItemEntity is the federation resolver counterpart of GetCartItem,
// without the identity gate.
func (s *QueryService) ResolveCartItemEntity(ctx context.Context, itemID string) (*domain.ShoppingCartItem, error) {
	user, err := s.users.FindItemOwner(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return projectCartItem(user, itemID)
}

func (s *QueryService) GetCartItemByVariantAndOwner(ctx context.Context, variantID, ownerID string) (*domain.ShoppingCartItem, error) {
	return s.users.FindItemByVariantAndOwner(ctx, variantID, ownerID)
}

// ListCarts pages over all carts with server-side sort, skip and limit.
func (s *QueryService) ListCarts(ctx context.Context, args repository.PageArgs) (pagination.Connection[domain.OwnedCart], error) {
	return s.listCarts(ctx, args, "")
}

// ListCartsForOwner is ListCarts with the owner filter folded into the
// storage query.
func (s *QueryService) ListCartsForOwner(ctx context.Context, args repository.PageArgs, ownerID string) (pagination.Connection[domain.OwnedCart], error) {
	return s.listCarts(ctx, args, ownerID)
}

func (s *QueryService) listCarts(ctx context.Context, args repository.PageArgs, ownerID string) (pagination.Connection[domain.OwnedCart], error) {
	users, total, err := s.users.ListUsers(ctx, args, ownerID)
	if err != nil {
		return pagination.Connection[domain.OwnedCart]{}, err
	}

	carts := make([]domain.OwnedCart, 0, len(users))
	for _, user := range users {
		carts = append(carts, domain.OwnedCart{UserID: user.ID, ShoppingCart: user.ShoppingCart})
	}
	return pagination.FromPage(carts, total, args.Skip), nil
}

// CartItems pages the embedded item set in memory; the owning document was
// already fetched whole.
func (s *QueryService) CartItems(cart *domain.ShoppingCart, first *int, skip int, order domain.CommonOrder) pagination.Connection[domain.ShoppingCartItem] {
	items := append([]domain.ShoppingCartItem(nil), cart.Items...)
	domain.SortItems(items, order)
	return pagination.Paginate(items, first, skip)
}

func (s *QueryService) resolveCart(ctx context.Context, ownerID string) (*domain.OwnedCart, error) {
	v, err, _ := s.sfg.Do(ownerID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart cache get failed", "owner", ownerID, "error", err)
		}

		cart, err = s.users.GetCartByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), ownerID, cart); errSet != nil {
				s.log.Warn("cart cache set failed", "owner", ownerID, "error", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	cart := v.(*domain.ShoppingCart)
	return &domain.OwnedCart{UserID: ownerID, ShoppingCart: *cart}, nil
}

func projectCartItem(user *domain.User, itemID string) (*domain.ShoppingCartItem, error) {
	item, ok := user.FirstCartItem()
	if !ok {
		return nil, apperror.NewNotFoundMessage(itemID,
			"Projection failed, shopping cart item could not be extracted from user.")
	}
	return &item, nil
}
