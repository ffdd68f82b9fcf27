package services

import (
	"sort"

	"tripledger-backend/models"
)

// BuildBudgetSummary computes a participant's spending against their
// personal budget, with a per-category breakdown. Spending is the sum of
// the user's own shares, not of whole expenses, so shared costs count only
// the user's portion. Categories are ordered by spend descending, then by
// name, so the output is deterministic.
func BuildBudgetSummary(budget models.Budget, baseCurrency string, expenses []models.Expense) models.BudgetSummary {
	type bucket struct {
		spent int64
		count int
	}
	buckets := make(map[string]*bucket)
	var spent, uncategorized int64
	var uncategorizedCount int

	for _, expense := range expenses {
		for _, share := range expense.Shares {
			if share.UserID != budget.UserID {
				continue
			}
			spent += share.AmountBase
			if expense.Category == "" {
				uncategorized += share.AmountBase
				uncategorizedCount++
				continue
			}
			b := buckets[expense.Category]
			if b == nil {
				b = &bucket{}
				buckets[expense.Category] = b
			}
			b.spent += share.AmountBase
			b.count++
		}
	}

	categories := make([]models.BudgetCategorySpending, 0, len(buckets))
	for category, b := range buckets {
		categories = append(categories, models.BudgetCategorySpending{
			Category:        category,
			SpentBase:       b.spent,
			ExpenseCount:    b.count,
			PercentOfTotal:  percentOf(b.spent, spent),
			PercentOfBudget: percentOf(b.spent, budget.AmountBase),
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].SpentBase != categories[j].SpentBase {
			return categories[i].SpentBase > categories[j].SpentBase
		}
		return categories[i].Category < categories[j].Category
	})

	return models.BudgetSummary{
		TripID:             budget.TripID,
		UserID:             budget.UserID,
		BaseCurrency:       baseCurrency,
		AmountBase:         budget.AmountBase,
		SpentBase:          spent,
		RemainingBase:      budget.AmountBase - spent,
		FillRatio:          percentOf(spent, budget.AmountBase),
		Categories:         categories,
		UncategorizedBase:  uncategorized,
		UncategorizedCount: uncategorizedCount,
	}
}

func percentOf(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
