package types

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	// ModuleName defines the module name
	ModuleName = "dex"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// Store key prefixes
var (
	PoolKey             = []byte{0x01} // prefix for pool records
	PoolByTokensKey     = []byte{0x02} // prefix for pool lookup by token pair
	OrderKey            = []byte{0x03} // prefix for order records
	OrderByOwnerKey     = []byte{0x04} // prefix for order lookup by owner
	OrderOpenKey        = []byte{0x05} // prefix for open-order index
	SettlementConfigKey = []byte{0x06} // key for the settlement config singleton
	FeeConfigKey        = []byte{0x07} // key for the fee config singleton
)

// Derivation namespace tags. The tag plus the identifying fields fully
// determine an address; callers and the engine compute the same address
// from the same inputs.
const (
	TagPool           = "pool"
	TagPoolAuthority  = "pool_authority"
	TagPoolReserve    = "pool_reserve"
	TagOrder          = "order"
	TagOrderAuthority = "order_authority"
	TagOrderEscrow    = "order_escrow"
)

// Address is a 32-byte derived identity. Addresses have no independent
// key material; authority over an address is tracked by the token ledger.
type Address [32]byte

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON encodes the address as a hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes the address from a hex string.
func (a *Address) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid address encoding: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("invalid address length: %d", len(decoded))
	}
	copy(a[:], decoded)
	return nil
}

// AddressFromString parses a hex-encoded address.
func AddressFromString(s string) (Address, error) {
	var a Address
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address encoding: %w", err)
	}
	if len(decoded) != 32 {
		return a, fmt.Errorf("invalid address length: %d", len(decoded))
	}
	copy(a[:], decoded)
	return a, nil
}

// Derive computes a deterministic address from a namespace tag and a list of
// identifying parts. Each part is length-prefixed before hashing so that
// ("ab","c") and ("a","bc") derive distinct addresses.
func Derive(tag string, parts ...[]byte) Address {
	h := sha256.New()
	writeLenPrefixed(h, []byte(tag))
	for _, p := range parts {
		writeLenPrefixed(h, p)
	}
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

func writeLenPrefixed(h interface{ Write([]byte) (int, error) }, p []byte) {
	var lenBytes [8]byte
	binary.BigEndian.PutUint64(lenBytes[:], uint64(len(p)))
	h.Write(lenBytes[:])
	h.Write(p)
}

// PoolAddress derives the identity of the pool for a token pair. The pair is
// ordered lexicographically first, so both argument orders derive the same pool.
func PoolAddress(tokenA, tokenB string) Address {
	tokenA, tokenB = OrderTokenPair(tokenA, tokenB)
	return Derive(TagPool, []byte(tokenA), []byte(tokenB))
}

// PoolAuthority derives the sub-authority that exclusively owns a pool's
// reserve accounts and LP mint.
func PoolAuthority(pool Address) Address {
	return Derive(TagPoolAuthority, pool[:])
}

// PoolReserveAddress derives the reserve account of a pool for one token side.
func PoolReserveAddress(pool Address, denom string) Address {
	return Derive(TagPoolReserve, pool[:], []byte(denom))
}

// LPDenom returns the LP share denomination for a pool.
func LPDenom(pool Address) string {
	return "lp/" + pool.String()
}

// OrderAddress derives the identity of an order from its owner, pool and
// creation time (unix seconds). The tuple must be unique; a second order by
// the same owner on the same pool in the same second collides.
func OrderAddress(owner, pool Address, createdAtUnix int64) Address {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(createdAtUnix))
	return Derive(TagOrder, owner[:], pool[:], ts[:])
}

// OrderAuthority derives the sub-authority that owns an order's escrow account.
func OrderAuthority(order Address) Address {
	return Derive(TagOrderAuthority, order[:])
}

// OrderEscrowAddress derives the escrow account holding an order's input tokens.
func OrderEscrowAddress(order Address, denom string) Address {
	return Derive(TagOrderEscrow, order[:], []byte(denom))
}

// OrderTokenPair returns the pair in lexicographic order.
func OrderTokenPair(tokenA, tokenB string) (string, string) {
	if tokenA > tokenB {
		return tokenB, tokenA
	}
	return tokenA, tokenB
}

// GetPoolKey returns the store key for a pool record.
func GetPoolKey(pool Address) []byte {
	return append(PoolKey, pool[:]...)
}

// GetPoolByTokensKey returns the store key for pool lookup by token pair.
func GetPoolByTokensKey(tokenA, tokenB string) []byte {
	tokenA, tokenB = OrderTokenPair(tokenA, tokenB)
	key := append(PoolByTokensKey, []byte(tokenA)...)
	key = append(key, []byte("/")...)
	return append(key, []byte(tokenB)...)
}

// GetOrderKey returns the store key for an order record.
func GetOrderKey(order Address) []byte {
	return append(OrderKey, order[:]...)
}

// GetOrderByOwnerKey returns the index key for orders by owner.
func GetOrderByOwnerKey(owner, order Address) []byte {
	key := append(OrderByOwnerKey, owner[:]...)
	return append(key, order[:]...)
}

// GetOrderOpenKey returns the index key for open orders.
func GetOrderOpenKey(order Address) []byte {
	return append(OrderOpenKey, order[:]...)
}
