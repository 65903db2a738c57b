package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellKey(t *testing.T) {
	assert.Equal(t, "10:20", cellKey(10, 20))
}
