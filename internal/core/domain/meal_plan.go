package domain

// MealPlanReference links a stock item to a meal plan that consumes it.
// The meal-planning side owns these rows; inventory only reads them.
type MealPlanReference struct {
	StockItemID  string
	MealPlanName string
}
