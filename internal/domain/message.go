package domain

// Message is a composed notification, rendered once per recipient and sent
// unchanged through any gateway. SMS gateways use Text only.
type Message struct {
	Subject string
	Text    string
	HTML    string
}
