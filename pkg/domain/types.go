package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
	OrderRefunded  OrderStatus = "refunded"
)

type ReviewRating string

const (
	RatingPositive ReviewRating = "positive"
	RatingNegative ReviewRating = "negative"
)

// Game is a read-only projection of a store game. Decimal fields keep the
// backend's string encoding; parse on use, never mutate locally.
type Game struct {
	ID                 int       `json:"id"`
	Title              string    `json:"title"`
	Slug               string    `json:"slug,omitempty"`
	Description        string    `json:"description"`
	ShortDescription   string    `json:"short_description"`
	Price              string    `json:"price"`
	DiscountPercentage int       `json:"discount_percentage"`
	DiscountedPrice    string    `json:"discounted_price"`
	Image              string    `json:"image"`
	ReleaseDate        string    `json:"release_date"`
	Developer          string    `json:"developer"`
	Publisher          string    `json:"publisher"`
	Tags               []Tag     `json:"tags"`
	ReviewCount        int       `json:"review_count"`
	PositiveReviews    float64   `json:"positive_reviews"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile is the extended account record kept alongside User.
type Profile struct {
	ID             int       `json:"id"`
	User           User      `json:"user"`
	ProfilePicture string    `json:"profile_picture"`
	StatusMessage  string    `json:"status_message"`
	Level          int       `json:"level"`
	XP             int       `json:"xp"`
	CreatedAt      time.Time `json:"created_at"`
}

type LibraryEntry struct {
	ID           int        `json:"id"`
	Game         Game       `json:"game"`
	PurchaseDate time.Time  `json:"purchase_date"`
	HoursPlayed  string     `json:"hours_played"`
	LastPlayed   *time.Time `json:"last_played"`
}

type WishlistItem struct {
	ID        int       `json:"id"`
	Game      Game      `json:"game"`
	AddedDate time.Time `json:"added_date"`
}

type Review struct {
	ID           int          `json:"id"`
	User         User         `json:"user"`
	Game         Game         `json:"game"`
	Rating       ReviewRating `json:"rating"`
	ReviewText   string       `json:"review_text"`
	HoursPlayed  string       `json:"hours_played"`
	HelpfulCount int          `json:"helpful_count"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Order struct {
	ID            int         `json:"id"`
	User          User        `json:"user"`
	TotalAmount   string      `json:"total_amount"`
	Status        OrderStatus `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	PaymentRef    string      `json:"stripe_payment_id"`
	CreatedAt     time.Time   `json:"created_at"`
	CompletedAt   *time.Time  `json:"completed_at"`
	Items         []OrderItem `json:"items"`
}

type OrderItem struct {
	ID              int    `json:"id"`
	Game            Game   `json:"game"`
	Price           string `json:"price"`
	DiscountApplied string `json:"discount_applied"`
}
