package ledger

import (
	"context"
	"fmt"

	"yarn-reconciliation-service/internal/models"
	"yarn-reconciliation-service/pkg/errors"
	"yarn-reconciliation-service/pkg/logger"
)

// DeleteAllocation removes one allocation from a lot by index and then
// removes the mirrored entry from the owning order's yarn-allocation
// map. It is invoked directly from the allocation list, outside the
// snapshot reconciliation flow.
//
// The two writes are independent: if the order-side cleanup fails after
// the lot write succeeded, the copies have diverged and the error says
// so explicitly. No automatic retry or compensation is attempted; the
// divergence must be remediated manually.
func (s *Store) DeleteAllocation(ctx context.Context, lotID string, index int) error {
	log := s.logger.WithComponent("allocation_maintenance").WithFields(logger.Fields{
		"lot_id": lotID,
		"index":  index,
	})

	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return err
	}

	if index < 0 || index >= len(lot.Allocations) {
		return errors.New(errors.CategoryAllocation, errors.CodeAllocationIndex,
			fmt.Sprintf("allocation index %d out of range for lot %s with %d allocations",
				index, lotID, len(lot.Allocations))).
			WithSuggestion("refresh the allocation list; another user may have removed it already").
			WithContext("lot_id", lotID).
			WithContext("index", index)
	}

	removed := lot.Allocations[index]
	lot.Allocations = append(lot.Allocations[:index], lot.Allocations[index+1:]...)

	if err := s.PutLot(ctx, lot); err != nil {
		return err
	}
	log.WithField("order_id", removed.OrderID).Info("Removed allocation from lot")

	if err := s.cleanupOrderAllocation(ctx, lotID, removed); err != nil {
		// Lot-side removal already persisted; surface the divergence.
		return errors.AllocationCleanupError(lotID, removed.OrderID, err)
	}

	return nil
}

// cleanupOrderAllocation removes the order-side mirror of a deleted lot
// allocation. Orders exist in one of two shapes: a standalone order
// document, or an order embedded in its customer's document. Both are
// attempted explicitly, standalone first.
func (s *Store) cleanupOrderAllocation(ctx context.Context, lotID string, removed models.Allocation) error {
	order, err := s.GetOrder(ctx, removed.OrderID)
	switch {
	case err == nil:
		if order.RemoveAllocationsForLot(lotID) == 0 {
			s.logger.WithFields(logger.Fields{
				"order_id": removed.OrderID,
				"lot_id":   lotID,
			}).Warn("Order carries no yarn allocation for the lot; nothing to clean up")
			return nil
		}
		return s.PutOrder(ctx, order)

	case !isNotFound(err):
		return err
	}

	// No standalone order document; try the customer-embedded shape.
	customer, err := s.GetCustomer(ctx, removed.CustomerID)
	if err != nil {
		if isNotFound(err) {
			return errors.New(errors.CategoryAllocation, errors.CodeOrderNotFound,
				fmt.Sprintf("order %s not found as a document or under customer %s",
					removed.OrderID, removed.CustomerID)).
				WithContext("order_id", removed.OrderID).
				WithContext("customer_id", removed.CustomerID)
		}
		return err
	}

	for i := range customer.Orders {
		if customer.Orders[i].ID != removed.OrderID {
			continue
		}
		customer.Orders[i].RemoveAllocationsForLot(lotID)
		return s.PutCustomer(ctx, customer)
	}

	return errors.New(errors.CategoryAllocation, errors.CodeOrderNotFound,
		fmt.Sprintf("order %s not found as a document or under customer %s",
			removed.OrderID, removed.CustomerID)).
		WithContext("order_id", removed.OrderID).
		WithContext("customer_id", removed.CustomerID)
}
