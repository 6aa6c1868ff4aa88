package clients

// ClientInput is the body accepted by create and update.
type ClientInput struct {
	FirstName  string     `json:"first_name" validate:"required,max=100"`
	LastName   string     `json:"last_name" validate:"required,max=100"`
	Email      string     `json:"email" validate:"required,email,max=254"`
	Phone      *string    `json:"phone" validate:"omitempty,max=40"`
	ClientType ClientType `json:"client_type" validate:"omitempty,oneof=employee temp"`
}

// ToggleActiveRequest flips billing eligibility for a client.
type ToggleActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}
