package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncBackend("my_appointments", "ok")
		IncUpdate("message")
		IncAction("confirm")
	})
}
