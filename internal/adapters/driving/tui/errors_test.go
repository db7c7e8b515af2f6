package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingSessionService.Error(), ErrMissingPipeline.Error())
	assert.Contains(t, ErrMissingSessionService.Error(), "session service")
	assert.Contains(t, ErrMissingPipeline.Error(), "pipeline service")
}
