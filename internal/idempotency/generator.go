package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Scope namespaces keys so equal parameters in different flows never collide
type Scope string

const (
	ScopePayment      Scope = "payment"
	ScopeNotification Scope = "notification"
)

// digestBytes is how much of the sha256 digest ends up in a key
const digestBytes = 8

// Generator derives deterministic keys from a scope and a parameter set.
// Parameter order does not matter.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	names := lo.Keys(params)
	slices.Sort(names)

	var canonical strings.Builder
	canonical.WriteString(string(scope))
	for _, name := range names {
		fmt.Fprintf(&canonical, "|%s=%v", name, params[name])
	}

	digest := sha256.Sum256([]byte(canonical.String()))
	return string(scope) + "-" + hex.EncodeToString(digest[:digestBytes])
}

// Matches reports whether key was generated from scope and params
func (g *Generator) Matches(scope Scope, params map[string]interface{}, key string) bool {
	return g.GenerateKey(scope, params) == key
}
