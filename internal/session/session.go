// Package session keeps the anonymous shopping cart in a signed cookie.
package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gorilla/securecookie"
)

const (
	CookieName = "cart"
	maxAge     = 30 * 24 * time.Hour
)

// Store encodes the product id -> quantity map into a cookie.
type Store struct {
	codec *securecookie.SecureCookie
}

// NewStore builds a store from the configured keys. An empty hash key gets
// a random one, which invalidates every cart cookie on restart.
func NewStore(hashKey, blockKey string) *Store {
	hk := []byte(hashKey)
	if len(hk) == 0 {
		log.Warn("SESSION_HASH_KEY is not set; anonymous carts will not survive a restart")
		hk = securecookie.GenerateRandomKey(32)
	}
	var bk []byte
	if blockKey != "" {
		bk = []byte(blockKey)
	}
	codec := securecookie.New(hk, bk)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(maxAge / time.Second))
	return &Store{codec: codec}
}

// Bind returns the cart session of a single request.
func (s *Store) Bind(c *fiber.Ctx) *Binding {
	return &Binding{store: s, c: c}
}

// Binding implements cart.SessionStore for one request. The cookie is
// decoded at most once.
type Binding struct {
	store  *Store
	c      *fiber.Ctx
	loaded bool
	cart   map[string]int
}

// Load returns the decoded cart; a missing, tampered or expired cookie reads
// as an empty cart.
func (b *Binding) Load() map[string]int {
	if b.loaded {
		return copyCart(b.cart)
	}
	b.loaded = true
	b.cart = map[string]int{}
	raw := b.c.Cookies(CookieName)
	if raw == "" {
		return map[string]int{}
	}
	decoded := map[string]int{}
	if err := b.store.codec.Decode(CookieName, raw, &decoded); err != nil {
		log.Warnf("session: discarding unreadable cart cookie: %v", err)
		return map[string]int{}
	}
	b.cart = decoded
	return copyCart(b.cart)
}

// Save writes the cart back as a response cookie.
func (b *Binding) Save(cart map[string]int) error {
	encoded, err := b.store.codec.Encode(CookieName, cart)
	if err != nil {
		return err
	}
	b.loaded = true
	b.cart = copyCart(cart)
	b.c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  time.Now().Add(maxAge),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func copyCart(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
