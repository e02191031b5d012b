package models

// Recommendation is one travel-destination suggestion, keyed by its
// position in the model-generated array.
type Recommendation struct {
	Title            string   `json:"title"`
	Location         string   `json:"location"`
	Description      string   `json:"description"`
	Activities       []string `json:"activities"`
	PriceRange       string   `json:"priceRange"`
	BestTime         string   `json:"bestTime"`
	ImageSearchQuery string   `json:"imageSearchQuery,omitempty"`
	Link             string   `json:"link"`
	ImageURL         string   `json:"imageUrl,omitempty"`
}

// RecommendationRequest is the inbound body of the recommend endpoints.
// Identity is either inline demographics (gender+age) or a stored profile
// referenced by UserID.
type RecommendationRequest struct {
	Destination             string   `json:"destination" binding:"required"`
	Gender                  string   `json:"gender"`
	Age                     string   `json:"age"`
	UserID                  string   `json:"userId"`
	Count                   int      `json:"count"`
	SkipSearch              bool     `json:"skipSearch"`
	SearchContext           string   `json:"searchContext"`
	PreviousRecommendations []string `json:"previousRecommendations"`
}

const (
	// MinRecommendationCount and MaxRecommendationCount bound the per-request
	// record count; out-of-range values are clamped, not rejected.
	MinRecommendationCount = 3
	MaxRecommendationCount = 21
)

// ClampedCount returns the effective record count for the request.
func (r *RecommendationRequest) ClampedCount() int {
	count := r.Count
	if count < MinRecommendationCount {
		count = MinRecommendationCount
	}
	if count > MaxRecommendationCount {
		count = MaxRecommendationCount
	}
	return count
}
