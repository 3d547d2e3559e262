package dinner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/models"
)

func lineItem(dishID int64, name string, price int64, count int, user string) models.LineItem {
	return models.LineItem{
		DinnerDish: models.DinnerDish{DishID: dishID, Count: count, User: user},
		DishName:   name,
		DishPrice:  price,
	}
}

func TestTotalCost(t *testing.T) {
	assert.Equal(t, int64(0), TotalCost(nil))
	assert.Equal(t, int64(600), TotalCost([]models.LineItem{
		lineItem(1, "Borscht", 150, 2, "a"),
		lineItem(2, "Kiev cutlet", 300, 1, "b"),
	}))
}

func TestGuestBreakdown(t *testing.T) {
	items := []models.LineItem{
		lineItem(1, "Borscht", 150, 2, "bob"),
		lineItem(2, "Kiev cutlet", 300, 1, "alice"),
		lineItem(3, "Kompot", 50, 3, "bob"),
		lineItem(4, "Bread", 10, 1, ""),
	}

	guests := GuestBreakdown(items)
	require.Len(t, guests, 3)

	assert.Equal(t, "bob", guests[0].Guest)
	assert.Len(t, guests[0].Lines, 2)
	assert.Equal(t, int64(450), guests[0].Subtotal)

	assert.Equal(t, "alice", guests[1].Guest)
	assert.Equal(t, int64(300), guests[1].Subtotal)

	assert.Equal(t, unlabelledGuest, guests[2].Guest)

	var sum int64
	for _, g := range guests {
		sum += g.Subtotal
	}
	assert.Equal(t, TotalCost(items), sum)

	assert.Empty(t, GuestBreakdown(nil))
}

func TestReceiptText(t *testing.T) {
	dinner := &models.Dinner{ID: 42, TableNumber: 3}
	items := []models.LineItem{lineItem(1, "Borscht", 150, 2, "bob")}

	text := ReceiptText(dinner, GuestBreakdown(items), TotalCost(items))
	assert.True(t, strings.HasPrefix(text, "Order #42\nTable #3\n"))
	assert.Contains(t, text, "Guest bob:")
	assert.Contains(t, text, "Borscht - 2 pcs. x 150 = 300")
	assert.Contains(t, text, "Subtotal = 300")
	assert.True(t, strings.HasSuffix(text, "Total = 300"))
}

func TestReceipt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	draft := draftWithDishes(t, f)

	receipt, err := f.service.Receipt(ctx, guest, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(450), receipt.Total)
	require.Len(t, receipt.Guests, 1)
	assert.Equal(t, "guest@example.com", receipt.Guests[0].Guest)
	assert.True(t, strings.HasPrefix(receipt.PaymentCode, "data:image/png;base64,"))
	require.Len(t, f.renderer.texts, 1)
	assert.Equal(t, receipt.Text, f.renderer.texts[0])

	_, err = f.service.Receipt(ctx, staff, draft.ID)
	require.NoError(t, err)

	_, err = f.service.Receipt(ctx, friend, draft.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.service.Receipt(ctx, guest, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	f.renderer.err = errRender
	_, err = f.service.Receipt(ctx, guest, draft.ID)
	assert.ErrorIs(t, err, apperror.ErrTransport)
}

func TestMinimalCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	draft := draftWithDishes(t, f)

	png, err := f.service.MinimalCode(ctx, friend, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "png:Order ID: 1, Table Number: 1", string(png))

	_, err = f.service.MinimalCode(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	f.renderer.err = errRender
	_, err = f.service.MinimalCode(ctx, friend, draft.ID)
	assert.ErrorIs(t, err, apperror.ErrTransport)
}

func TestReceipt_DeletedDishStillCounted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	draft := draftWithDishes(t, f)

	_, err := f.service.UpdateLineItem(ctx, guest, draft.ID, 2, &models.UpdateLineItemRequest{Count: intPtr(3)})
	require.NoError(t, err)
	_, err = f.service.Form(ctx, guest, draft.ID, formRequest(7))
	require.NoError(t, err)

	f.store.dishes.softDelete(2)

	completed, err := f.service.CompleteOrReject(ctx, moderator, draft.ID, &models.TransitionRequest{Status: statusPtr(models.DinnerCompleted)})
	require.NoError(t, err)
	require.NotNil(t, completed.TotalCost)
	assert.Equal(t, int64(150+3*300), *completed.TotalCost)

	receipt, err := f.service.Receipt(ctx, guest, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1050), receipt.Total)
	require.Len(t, receipt.Guests, 1)
	assert.Equal(t, int64(1050), receipt.Guests[0].Subtotal)
	assert.Contains(t, receipt.Guests[0].Lines, models.GuestLine{DishID: 2, Name: "Kiev cutlet", Price: 300, Quantity: 3})
	assert.Contains(t, receipt.Text, "Kiev cutlet - 3 pcs. x 300 = 900")

	_, err = f.service.AddDishToDraft(ctx, guest, 2)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
