package model

// EmailJob is one queued outgoing message.
type EmailJob struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"htmlBody"`
	Attempt  int    `json:"attempt"`
}
