package lens

import "time"

// Video is one recorded livestream/short-video commerce session.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	DurationSec float64   `json:"duration_sec"`
	GMV         float64   `json:"gmv"`
	PeakViewers int       `json:"peak_viewers"`
	CreatedAt   time.Time `json:"created_at"`
}

// VideoAnalytics is the full analytics report for a processed video.
type VideoAnalytics struct {
	VideoID     string            `json:"video_id"`
	GMV         float64           `json:"gmv"`
	TotalOrders int               `json:"total_orders"`
	PeakViewers int               `json:"peak_viewers"`
	AvgViewers  float64           `json:"avg_viewers"`
	Exposures   []ProductExposure `json:"product_exposures"`
}

// ProductExposure is one segment of the product exposure timeline: the
// window during which a product was on screen and what it earned.
type ProductExposure struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Clicks    int     `json:"clicks"`
	GMV       float64 `json:"gmv"`
}
