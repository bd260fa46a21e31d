package model

// User is the subset of the identity provider's user record needed for
// payment sessions and confirmation emails.
type User struct {
	ID    string `json:"id,omitempty" bson:"_id,omitempty"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
	Role  string `json:"role" bson:"role"`
}
