package demo

// gorm models mirroring the statistics backend's schema. The demo
// backend serves the same JSON the real one does, from a seeded sqlite
// file instead of provider log ingestion.

type Client struct {
	ID         uint   `gorm:"primaryKey"`
	AccountID  string `gorm:"index"`
	ClientName string
	CreatedAt  string
}

type Host struct {
	ID                     uint   `gorm:"primaryKey"`
	AccountID              string `gorm:"index"`
	ClientName             string `gorm:"index"`
	Name                   string
	TotalRequests          int64
	CacheHit               int64
	OriginFetch            int64
	AccelerationPercentage float64
	LatencyImprovement     float64
	CertExpiry             string
}

type MonthlyStat struct {
	ID               uint   `gorm:"primaryKey"`
	AccountID        string `gorm:"index"`
	MonthYear        string
	TotalRequests    int64
	BandwidthUsed    float64
	UniqueVisits     int64
	PageViews        int64
	CachePercentage  float64
	OriginPercentage float64
}

// DailyEvent is one day/category tally along one dimension. Kind selects
// the dimension: country, action, delivery, security or classification.
type DailyEvent struct {
	ID         uint   `gorm:"primaryKey"`
	AccountID  string `gorm:"index"`
	ClientName string `gorm:"index"`
	MonthRef   string `gorm:"index"` // MM-YYYY
	TS         string // DD-MM
	Kind       string `gorm:"index"`
	Category   string
	Count      int64
}

// Event kinds.
const (
	KindCountry        = "country"
	KindAction         = "action"
	KindDelivery       = "delivery"
	KindSecurity       = "security"
	KindClassification = "classification"
)

// TopSample is one precomputed top-N line for one breakdown dimension.
type TopSample struct {
	ID                uint   `gorm:"primaryKey"`
	ClientName        string `gorm:"index"`
	MonthRef          string `gorm:"index"`
	Dimension         string `gorm:"index"` // countries, asns, ips, ...
	Value             string
	Count             int64
	Percentage        string
	AvgSampleInterval float64
	Rank              int
}

// SecurityAnalysis is one month's request/mitigation rollup.
type SecurityAnalysis struct {
	ID              uint   `gorm:"primaryKey"`
	ClientName      string `gorm:"index"`
	CreatedAt       string
	RequestsTotal   int64
	ValidRequests   int64
	TotalMitigated  int64
	BlockedRequests string
}
