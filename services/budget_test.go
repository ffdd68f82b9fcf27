package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tripledger-backend/models"
)

func TestBuildBudgetSummaryCountsOnlyOwnShares(t *testing.T) {
	a, b := testID(1), testID(2)
	budget := models.Budget{UserID: a, AmountBase: 100000}

	expenses := []models.Expense{
		{
			Category:   "food",
			AmountBase: 30000,
			Shares: []models.ExpenseShare{
				{UserID: a, AmountBase: 15000},
				{UserID: b, AmountBase: 15000},
			},
		},
		{
			Category:   "food",
			AmountBase: 10000,
			Shares: []models.ExpenseShare{
				{UserID: a, AmountBase: 10000},
			},
		},
		{
			Category:   "transport",
			AmountBase: 40000,
			Shares: []models.ExpenseShare{
				{UserID: b, AmountBase: 40000}, // not ours
			},
		},
	}

	summary := BuildBudgetSummary(budget, "KRW", expenses)
	assert.Equal(t, "KRW", summary.BaseCurrency)
	assert.Equal(t, int64(25000), summary.SpentBase)
	assert.Equal(t, int64(75000), summary.RemainingBase)
	assert.InDelta(t, 25.0, summary.FillRatio, 0.001)

	assert.Len(t, summary.Categories, 1)
	assert.Equal(t, "food", summary.Categories[0].Category)
	assert.Equal(t, int64(25000), summary.Categories[0].SpentBase)
	assert.Equal(t, 2, summary.Categories[0].ExpenseCount)
	assert.InDelta(t, 100.0, summary.Categories[0].PercentOfTotal, 0.001)
	assert.InDelta(t, 25.0, summary.Categories[0].PercentOfBudget, 0.001)
}

func TestBuildBudgetSummaryCategoryOrderAndUncategorized(t *testing.T) {
	a := testID(1)
	budget := models.Budget{UserID: a, AmountBase: 10000}

	expenses := []models.Expense{
		{Category: "food", Shares: []models.ExpenseShare{{UserID: a, AmountBase: 2000}}},
		{Category: "transport", Shares: []models.ExpenseShare{{UserID: a, AmountBase: 3000}}},
		{Category: "drinks", Shares: []models.ExpenseShare{{UserID: a, AmountBase: 2000}}},
		{Shares: []models.ExpenseShare{{UserID: a, AmountBase: 500}}},
		{Shares: []models.ExpenseShare{{UserID: a, AmountBase: 700}}},
	}

	summary := BuildBudgetSummary(budget, "KRW", expenses)
	assert.Equal(t, int64(8200), summary.SpentBase)
	assert.Equal(t, int64(1200), summary.UncategorizedBase)
	assert.Equal(t, 2, summary.UncategorizedCount)

	// Largest spend first; equal spends ordered by name.
	assert.Equal(t, []string{"transport", "drinks", "food"}, []string{
		summary.Categories[0].Category,
		summary.Categories[1].Category,
		summary.Categories[2].Category,
	})
}

func TestBuildBudgetSummaryOverspendAndZeroBudget(t *testing.T) {
	a := testID(1)

	overspent := BuildBudgetSummary(
		models.Budget{UserID: a, AmountBase: 1000},
		"KRW",
		[]models.Expense{{Category: "food", Shares: []models.ExpenseShare{{UserID: a, AmountBase: 1500}}}},
	)
	assert.Equal(t, int64(-500), overspent.RemainingBase)
	assert.InDelta(t, 150.0, overspent.FillRatio, 0.001)

	// A zero-amount budget never divides by zero.
	empty := BuildBudgetSummary(models.Budget{UserID: a}, "KRW", nil)
	assert.Zero(t, empty.SpentBase)
	assert.Zero(t, empty.FillRatio)
	assert.Empty(t, empty.Categories)
}
