package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDsCarryPrefix(t *testing.T) {
	tests := []struct {
		gen    func() string
		prefix string
	}{
		{NewSessionID, PrefixSession},
		{NewClientID, PrefixClient},
		{NewSnapshotID, PrefixSnapshot},
		{NewExportID, PrefixExport},
	}
	for _, tt := range tests {
		id := tt.gen()
		assert.True(t, strings.HasPrefix(id, tt.prefix+"_"), id)
		require.NoError(t, Validate(id, tt.prefix))
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(NewSessionID(), PrefixExport))
	assert.Error(t, Validate("not-an-id", PrefixSession))
	assert.NotEqual(t, NewSnapshotID(), NewSnapshotID())
}
