package match

import (
	"encoding/json"

	"github.com/openboard/darts-server/internal/engine"
)

// jsonMarshalState snapshots the engine state inside the actor goroutine,
// so the bytes handed to writer goroutines never alias live maps.
func jsonMarshalState(s *engine.State) (json.RawMessage, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return json.RawMessage(`{}`), err
	}
	return raw, nil
}
