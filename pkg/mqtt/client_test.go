package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"vehicles/veh-1/status", "vehicles/veh-1/status", true},
		{"vehicles/+/status", "vehicles/veh-1/status", true},
		{"vehicles/+/status", "vehicles/veh-1/gps", false},
		{"vehicles/+/gps", "vehicles/veh-42/gps", true},
		{"vehicles/#", "vehicles/veh-1/status", true},
		{"vehicles/#", "fleet/veh-1/status", false},
		{"vehicles/+/status", "vehicles/a/b/status", false},
		{"vehicles/+", "vehicles/veh-1/status", false},
	}

	for _, tt := range tests {
		t.Run(tt.filter+" vs "+tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, topicsMatch(tt.filter, tt.topic))
		})
	}
}

func TestTopicFilterStripsSharedGroup(t *testing.T) {
	assert.Equal(t, "vehicles/+/status", topicFilter("$share/hub/vehicles/+/status"))
	assert.Equal(t, "vehicles/+/status", topicFilter("vehicles/+/status"))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&ClientConfig{})
	assert.Error(t, err)

	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "test"})
	assert.NoError(t, err)
	assert.NotNil(t, c)
}
