package domain

import "time"

// PublicKeyRegistryEntry is the durable binding of one device key to one
// individual. The raw individual id is never stored, only its hash; the
// PSU token is the registry's correlation key.
type PublicKeyRegistryEntry struct {
	IDHash          string    `bson:"id_hash" json:"id_hash"`
	PSUToken        string    `bson:"psu_token" json:"psu_token"`
	PublicKey       string    `bson:"public_key" json:"public_key"`
	PublicKeyHash   string    `bson:"public_key_hash" json:"public_key_hash"`
	WalletBindingID string    `bson:"wallet_binding_id" json:"wallet_binding_id"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt       time.Time `bson:"expires_at" json:"expires_at"`
}
