package dinner

import (
	"context"
	"fmt"
	"strings"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/qrcode"
)

const unlabelledGuest = "unassigned"

// TotalCost sums price times count over the line items. An empty dinner costs 0.
func TotalCost(items []models.LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.DishPrice * int64(item.Count)
	}
	return total
}

// GuestBreakdown groups line items by guest label, keeping the order in which
// guests first appear.
func GuestBreakdown(items []models.LineItem) []models.GuestSummary {
	guests := []models.GuestSummary{}
	index := make(map[string]int)

	for _, item := range items {
		label := item.User
		if label == "" {
			label = unlabelledGuest
		}

		i, ok := index[label]
		if !ok {
			i = len(guests)
			index[label] = i
			guests = append(guests, models.GuestSummary{Guest: label, Lines: []models.GuestLine{}})
		}

		guests[i].Lines = append(guests[i].Lines, models.GuestLine{
			DishID:   item.DishID,
			Name:     item.DishName,
			Price:    item.DishPrice,
			Quantity: item.Count,
		})
		guests[i].Subtotal += item.DishPrice * int64(item.Count)
	}
	return guests
}

// ReceiptText renders the human-readable receipt encoded into the payment code
func ReceiptText(dinner *models.Dinner, guests []models.GuestSummary, total int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d\n", dinner.ID)
	fmt.Fprintf(&b, "Table #%d\n", dinner.TableNumber)

	for _, guest := range guests {
		fmt.Fprintf(&b, "\nGuest %s:\n", guest.Guest)
		for _, line := range guest.Lines {
			fmt.Fprintf(&b, "  %s - %d pcs. x %d = %d\n", line.Name, line.Quantity, line.Price, line.Price*int64(line.Quantity))
		}
		fmt.Fprintf(&b, "  Subtotal = %d\n", guest.Subtotal)
	}

	fmt.Fprintf(&b, "\nTotal = %d", total)
	return b.String()
}

// MinimalCodeText is the short payload of the compact payment code
func MinimalCodeText(dinner *models.Dinner) string {
	return fmt.Sprintf("Order ID: %d, Table Number: %d", dinner.ID, dinner.TableNumber)
}

// Receipt builds the per-guest receipt of a dinner and its payment code as a
// data URI. Only the creator and staff may see it.
func (s *Service) Receipt(ctx context.Context, caller *auth.Identity, dinnerID int64) (*models.Receipt, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	dinner, err := s.store.GetDinner(ctx, dinnerID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireCreatorOrStaff(caller, dinner); err != nil {
		return nil, err
	}

	items, err := s.store.ListLineItems(ctx, dinnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}

	guests := GuestBreakdown(items)
	total := TotalCost(items)
	text := ReceiptText(dinner, guests, total)

	png, err := s.renderer.Render(text)
	if err != nil {
		s.logger.Error("receipt_render_failed", "Failed to render receipt code", logger.RequestIDFromContext(ctx), err, map[string]interface{}{
			"dinner_id": dinnerID,
		})
		return nil, apperror.Transport("failed to render payment code", err)
	}

	return &models.Receipt{
		DinnerID:    dinner.ID,
		TableNumber: dinner.TableNumber,
		Guests:      guests,
		Total:       total,
		Text:        text,
		PaymentCode: qrcode.DataURI(png),
	}, nil
}

// MinimalCode renders the compact payment code of a dinner as raw PNG bytes
func (s *Service) MinimalCode(ctx context.Context, caller *auth.Identity, dinnerID int64) ([]byte, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	dinner, err := s.store.GetDinner(ctx, dinnerID)
	if err != nil {
		return nil, err
	}

	png, err := s.renderer.Render(MinimalCodeText(dinner))
	if err != nil {
		return nil, apperror.Transport("failed to render payment code", err)
	}
	return png, nil
}
