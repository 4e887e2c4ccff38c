package model

// EmailJob is a queued email. Data is rendered into the named template by the
// email worker.
type EmailJob struct {
	Template string                 `json:"template"`
	To       string                 `json:"to"`
	ToName   string                 `json:"to_name"`
	Data     map[string]interface{} `json:"data"`
	Attempts int                    `json:"attempts"`
}
