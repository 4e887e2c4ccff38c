package config

// QueueKeys names the Redis lists drained by the background workers.
type QueueKeys struct {
	// Email holds JSON mailer jobs for worker.EmailWorker.
	Email string
	// ActivityLog holds JSON activity rows for worker.ActivityWorker.
	ActivityLog string
}

// Depths returns the queues keyed by the label reported in system metrics.
func (q QueueKeys) Depths() map[string]string {
	return map[string]string{
		"email":        q.Email,
		"activity_log": q.ActivityLog,
	}
}

var Queues = QueueKeys{
	Email:       "queue:email",
	ActivityLog: "queue:activity_log",
}
