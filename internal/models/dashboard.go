package models

// DashboardStats агрегированные показатели для главной панели.
type DashboardStats struct {
	InspectionsByStatus map[string]int `json:"inspections_by_status"`
	UsersByRole         map[string]int `json:"users_by_role"`
	CreditsSold         int            `json:"credits_sold"`
	ReportsDownloaded   int            `json:"reports_downloaded"`
	NFTsMinted          int            `json:"nfts_minted"`
}

// TrendBucket одна корзина временного ряда количества осмотров.
// Key — отформатированная метка начала корзины в часовом поясе запроса.
type TrendBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// TrendResult временной ряд с выбранной гранулярностью.
type TrendResult struct {
	Granularity string        `json:"granularity"`
	Timezone    string        `json:"timezone"`
	Buckets     []TrendBucket `json:"buckets"`
}
