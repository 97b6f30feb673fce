package domain

import "time"

// Client is a registered relying party. The claim and ACR lists are the
// policy boundary for what the client may request on /oauth-details.
type Client struct {
	ID              string    `bson:"_id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	RedirectURIs    []string  `bson:"redirect_uris" json:"redirect_uris"`
	PermittedClaims []string  `bson:"permitted_claims" json:"permitted_claims"`
	PermittedACRs   []string  `bson:"permitted_acrs" json:"permitted_acrs"`
	Status          string    `bson:"status" json:"status"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// ClientStatusActive marks a client that may start authorization flows.
const ClientStatusActive = "ACTIVE"
