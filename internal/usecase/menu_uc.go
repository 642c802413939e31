package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
	"telegram-pizza-shop/internal/domain/ports/repository"
)

// MenuUseCase builds the paged product menu and refreshes the shared cache.
// The cached menu is eventually-consistent, replace-whole-value data: the
// refresh overwrites only the menu field of shared data and leaves sessions
// and the credential untouched beyond a possible token refresh.
type MenuUseCase struct {
	store    repository.SnapshotStore
	gateway  adapter.CommerceGateway
	credUC   *CredentialUseCase
	pageSize int
	log      *zerolog.Logger
}

func NewMenuUseCase(store repository.SnapshotStore, gateway adapter.CommerceGateway, credUC *CredentialUseCase, pageSize int, logger *zerolog.Logger) *MenuUseCase {
	if pageSize <= 0 {
		pageSize = 8
	}
	l := logger.With().Str("component", "MenuUseCase").Logger()
	return &MenuUseCase{
		store:    store,
		gateway:  gateway,
		credUC:   credUC,
		pageSize: pageSize,
		log:      &l,
	}
}

// Build chunks the product list into pages with wrap-around navigation:
// page 1's previous page is the last page and vice versa.
func (uc *MenuUseCase) Build(products []adapter.Product) *model.Menu {
	menu := &model.Menu{Pages: make(map[int]model.MenuPage)}
	if len(products) == 0 {
		return menu
	}

	pageCount := (len(products) + uc.pageSize - 1) / uc.pageSize
	for page := 1; page <= pageCount; page++ {
		start := (page - 1) * uc.pageSize
		end := start + uc.pageSize
		if end > len(products) {
			end = len(products)
		}

		items := make([]model.MenuItem, 0, end-start)
		for _, p := range products[start:end] {
			items = append(items, model.MenuItem{Name: p.Name, ProductID: p.ID})
		}

		prev, next := page-1, page+1
		if page == 1 {
			prev = pageCount
		}
		if page == pageCount {
			next = 1
		}
		menu.Pages[page] = model.MenuPage{
			Number:   page,
			Items:    items,
			PrevPage: prev,
			NextPage: next,
		}
	}
	menu.PageCount = pageCount
	return menu
}

// Refresh recomputes the cached menu from the live catalog and writes it back
// in one store Update cycle, so a dispatch committing between the load and
// the write can never be erased by the refresh. Regeneration is idempotent
// for an unchanged product set.
func (uc *MenuUseCase) Refresh(ctx context.Context) error {
	return uc.store.Update(ctx, func(snap *model.Snapshot) error {
		token, err := uc.credUC.Ensure(ctx, snap)
		if err != nil {
			return err
		}
		products, err := uc.gateway.Products(ctx, token)
		if err != nil {
			return fmt.Errorf("fetch products: %w", err)
		}
		snap.Shared.Menu = uc.Build(products)
		uc.log.Debug().Int("pages", snap.Shared.Menu.PageCount).Msg("menu cache refreshed")
		return nil
	})
}
