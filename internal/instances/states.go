package instances

import "github.com/convivo/backend/internal/models"

// Evolution reports Baileys connection states ("open", "connecting", "close");
// registry states are also accepted literally so explicit provisioning calls
// can reuse the same path.
var providerStates = map[string]string{
	"open":       models.InstanceStateConnected,
	"connecting": models.InstanceStateConnecting,
	"close":      models.InstanceStateDisconnected,
	"closed":     models.InstanceStateDisconnected,
	"refused":    models.InstanceStateError,

	// "connecting" above is already the registry literal.
	models.InstanceStateUninitialized: models.InstanceStateUninitialized,
	models.InstanceStateConnected:     models.InstanceStateConnected,
	models.InstanceStateDisconnected:  models.InstanceStateDisconnected,
	models.InstanceStateError:         models.InstanceStateError,
}

// MapProviderState maps a provider connection state to a registry state.
// Returns false for states this system does not model.
func MapProviderState(s string) (string, bool) {
	mapped, ok := providerStates[s]
	return mapped, ok
}
