package model

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalUsers       int              `json:"total_users"`
	UsersByRole      map[string]int   `json:"users_by_role"`
	TotalCourses     int              `json:"total_courses"`
	PublishedCourses int              `json:"published_courses"`
	Enrollments      int              `json:"enrollments"`
	Completions      int              `json:"completions"`
	Certificates     int              `json:"certificates"`
	RevenueCents     map[string]int64 `json:"revenue_cents"`
}
