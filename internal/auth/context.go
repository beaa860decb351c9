package auth

import "github.com/wb-go/wbf/ginext"

const identityKey = "auth.identity"

func SetIdentity(c *ginext.Context, id Identity) {
	c.Set(identityKey, id)
}

// FromContext returns the identity stored by the auth middleware, if any.
func FromContext(c *ginext.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
