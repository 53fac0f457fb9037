package domain

import "time"

// Category is a user-scoped transaction category. Category names are unique
// per user.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultCategory is a category template seeded for every new account.
type DefaultCategory struct {
	Name  string
	Icon  string
	Color string
}

// DefaultCategories returns the starter categories created on registration.
func DefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{Name: "Salary", Icon: "💼", Color: "#22c55e"},
		{Name: "Freelance", Icon: "💻", Color: "#3b82f6"},
		{Name: "Investments", Icon: "📈", Color: "#8b5cf6"},
		{Name: "Food & Dining", Icon: "🍽️", Color: "#f97316"},
		{Name: "Transportation", Icon: "🚗", Color: "#06b6d4"},
		{Name: "Housing", Icon: "🏠", Color: "#ec4899"},
		{Name: "Entertainment", Icon: "🎬", Color: "#f59e0b"},
		{Name: "Healthcare", Icon: "⚕️", Color: "#ef4444"},
		{Name: "Shopping", Icon: "🛍️", Color: "#a855f7"},
		{Name: "Utilities", Icon: "⚡", Color: "#6b7280"},
		{Name: "Education", Icon: "📚", Color: "#0ea5e9"},
		{Name: "Other", Icon: "📦", Color: "#9ca3af"},
	}
}
