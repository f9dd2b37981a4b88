package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// ChatMetrics is returned by GET /v1/metrics/chat.
type ChatMetrics struct {
	TotalAsks           int64   `json:"totalAsks"`
	Rejections          int64   `json:"rejections"`
	DeniedRejections    int64   `json:"deniedRejections"`
	TransportErrors     int64   `json:"transportErrors"`
	RejectionRate       float64 `json:"rejectionRate"`
	ActiveConversations int64   `json:"activeConversations"`
	DialoguesRun        int64   `json:"dialoguesRun"`
	Period              string  `json:"period"`
}
