package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j****@example.com", MaskEmail("joana@example.com"))
	assert.Equal(t, "****", MaskEmail("a@b"))
	assert.Equal(t, "****", MaskEmail("not-an-email"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********7766", MaskPhone("+552199887766"))
	assert.Equal(t, "****", MaskPhone("123"))
}

func TestMaskSensitiveData(t *testing.T) {
	data := map[string]interface{}{
		"email":      "guest@example.com",
		"phone":      "+5521999887766",
		"guest_name": "Joana Silva",
		"event_id":   "evt-123",
	}

	masked := MaskSensitiveData(data)

	assert.Equal(t, "********", masked["email"])
	assert.Equal(t, "********", masked["phone"])
	assert.Equal(t, "********", masked["guest_name"])
	assert.Equal(t, "evt-123", masked["event_id"])
}
