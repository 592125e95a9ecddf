package dto

// ContactRequest defines the expected payload for the contact form endpoint.
type ContactRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Country  string `json:"country" validate:"omitempty,max=80"`
	Phone    string `json:"phone" validate:"omitempty,max=40"`
	Subject  string `json:"subject" validate:"omitempty,max=200"`
	Message  string `json:"message" validate:"required,max=5000"`
	Honeypot string `json:"_note"`
}

// ContactResponse communicates the status of the submission processing.
type ContactResponse struct {
	ReferenceID  string `json:"reference_id"`
	Status       string `json:"status"`
	Acknowledged bool   `json:"acknowledged"`
}

// PartialDeliveryResponse is attached to the error payload when only the owner was notified.
type PartialDeliveryResponse struct {
	ReferenceID   string `json:"reference_id"`
	OwnerNotified bool   `json:"owner_notified"`
	Acknowledged  bool   `json:"acknowledged"`
}
