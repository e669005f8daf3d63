package domain

// Profile is the display information of a tracked user.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Guardian is an app user with an active tracking relationship to the owner.
type Guardian struct {
	UserID string
	Name   string
	Phone  string
	Email  string
}

// EmergencyContact has no app identity; only raw contact details.
type EmergencyContact struct {
	Name  string
	Phone string
	Email string
}

type RecipientSet struct {
	Guardians []Guardian
	Contacts  []EmergencyContact
}

func (r RecipientSet) Len() int {
	return len(r.Guardians) + len(r.Contacts)
}
