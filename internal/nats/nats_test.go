package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectReportsUnreachableServer(t *testing.T) {
	n, err := Connect("console_test", "nats://127.0.0.1:1", "secret")
	assert.Nil(t, n)
	assert.ErrorContains(t, err, "connect nats nats://127.0.0.1:1")
}
