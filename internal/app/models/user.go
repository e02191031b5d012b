package models

// Transaction is one spending record attached to a profile; the
// recommendation prompt uses these only indirectly (demographics), they
// are kept for the profile UI.
type Transaction struct {
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Merchant    string  `json:"merchant"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Profile is a stored user profile. IDs are assigned server-side in the
// user_NNN form and never change.
type Profile struct {
	ID           string        `json:"id" badgerhold:"key"`
	Name         string        `json:"name"`
	Gender       string        `json:"gender"`
	Age          string        `json:"age"`
	Transactions []Transaction `json:"transactions"`
}
