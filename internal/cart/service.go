package cart

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sssssubin/cart-service/internal/catalog"
	"github.com/sssssubin/cart-service/internal/pricing"
	"github.com/sssssubin/cart-service/pkg/db/models"
	pkgerrors "github.com/sssssubin/cart-service/pkg/errors"
	"github.com/sssssubin/cart-service/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the (catalog, cart) pair for a session: every mutation moves
// stock and cart quantity together, then re-prices and snapshots the cart.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddProduct(ctx context.Context, sessionID, productID string) (*View, error)
	ChangeQuantity(ctx context.Context, sessionID, productID string, delta int) (*View, error)
	RemoveLine(ctx context.Context, sessionID, productID string) (*View, error)
	SelectProduct(ctx context.Context, sessionID, productID string) error
	Restore(ctx context.Context, sessionID string, items []Line) (*View, error)
}

type service struct {
	repo      *catalog.Repository
	tx        txRunner
	snapshots *SnapshotStore
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams configure the cart service.
type ServiceParams struct {
	Repo      *catalog.Repository
	Tx        txRunner
	Snapshots *SnapshotStore
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		snapshots: params.Snapshots,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	state, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.buildView(ctx, state)
}

// AddProduct puts one unit of the product in the cart, merging into an
// existing line. Missing products and empty stock both surface as
// out-of-stock with no state change.
func (s *service) AddProduct(ctx context.Context, sessionID, productID string) (*View, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	state, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).AdjustStock(ctx, productID, -1)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if moved == 0 {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "product is out of stock").
				WithDetails(map[string]any{"product_id": productID})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if idx, ok := state.findLine(productID); ok {
		state.Lines[idx].Quantity++
	} else {
		state.Lines = append(state.Lines, Line{ProductID: productID, Quantity: 1})
	}

	return s.finishMutation(ctx, state)
}

// ChangeQuantity moves a line by delta. A missing line is a silent no-op.
// Dropping to zero or below removes the line and returns everything it held
// to stock; increasing beyond available stock fails with no state change.
func (s *service) ChangeQuantity(ctx context.Context, sessionID, productID string, delta int) (*View, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	state, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	idx, ok := state.findLine(productID)
	if !ok || delta == 0 {
		return s.buildView(ctx, state)
	}

	held := state.Lines[idx].Quantity
	newQuantity := held + delta

	if newQuantity <= 0 {
		// removal returns the full held quantity, never just delta
		if err := s.restoreStock(ctx, productID, held); err != nil {
			return nil, err
		}
		state.removeLineAt(idx)
		return s.finishMutation(ctx, state)
	}

	if delta > 0 {
		if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			moved, err := s.repo.WithTx(tx).AdjustStock(ctx, productID, -delta)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if moved == 0 {
				return pkgerrors.New(pkgerrors.CodeOutOfStock, "not enough stock for requested quantity").
					WithDetails(map[string]any{"product_id": productID})
			}
			return nil
		}); err != nil {
			return nil, err
		}
	} else {
		if err := s.restoreStock(ctx, productID, -delta); err != nil {
			return nil, err
		}
	}

	state.Lines[idx].Quantity = newQuantity
	return s.finishMutation(ctx, state)
}

// RemoveLine deletes the product's line, returning its quantity to stock.
// Absent lines are a no-op.
func (s *service) RemoveLine(ctx context.Context, sessionID, productID string) (*View, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	state, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	idx, ok := state.findLine(productID)
	if !ok {
		return s.buildView(ctx, state)
	}

	if err := s.restoreStock(ctx, productID, state.Lines[idx].Quantity); err != nil {
		return nil, err
	}
	state.removeLineAt(idx)

	return s.finishMutation(ctx, state)
}

// SelectProduct records the product the session last pointed at; the
// recommendation sale avoids it when picking its markdown target.
func (s *service) SelectProduct(ctx context.Context, sessionID, productID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err := s.snapshots.RecordSelection(ctx, sessionID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record selection")
	}
	return nil
}

// Restore materializes a previously exported snapshot for the session,
// reserving stock for every restored line so stock and cart quantities stay
// complementary. Unknown products are dropped; quantities clamp to what
// stock allows. Any cart the session already held is returned to stock
// first.
func (s *service) Restore(ctx context.Context, sessionID string, items []Line) (*View, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	current, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	state := &State{SessionID: sessionID}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, line := range current.Lines {
			if _, err := repo.AdjustStock(ctx, line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
			}
		}

		for _, item := range mergeLines(items) {
			product, err := repo.FindByID(ctx, item.ProductID)
			if err != nil {
				// unknown products in a stale snapshot are dropped, not fatal
				continue
			}
			take := item.Quantity
			if take > product.Stock {
				take = product.Stock
			}
			if take <= 0 {
				continue
			}
			if _, err := repo.AdjustStock(ctx, item.ProductID, -take); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			state.Lines = append(state.Lines, Line{ProductID: item.ProductID, Quantity: take})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.finishMutation(ctx, state)
}

func (s *service) restoreStock(ctx context.Context, productID string, quantity int) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).AdjustStock(ctx, productID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
		}
		return nil
	})
}

// finishMutation re-prices the cart and snapshots it. Snapshot writes are
// fire-and-forget: a failed write is logged, not surfaced.
func (s *service) finishMutation(ctx context.Context, state *State) (*View, error) {
	view, err := s.buildView(ctx, state)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Save(ctx, state, view.Quote); err != nil && s.logg != nil {
		s.logg.Error(ctx, "cart snapshot write failed", err)
	}
	return view, nil
}

func (s *service) buildView(ctx context.Context, state *State) (*View, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}

	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := &View{
		Quote: pricing.Quote(state.PricingLines(), catalogView(products), s.now()),
	}
	for _, line := range state.Lines {
		product, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		view.Lines = append(view.Lines, ViewLine{
			ProductID: line.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
		})
	}
	return view, nil
}

func mergeLines(items []Line) []Line {
	merged := make([]Line, 0, len(items))
	index := map[string]int{}
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
