package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionOrdering(t *testing.T) {
	assert.True(t, PermissionView < PermissionComment)
	assert.True(t, PermissionComment < PermissionEdit)
	assert.True(t, PermissionEdit < PermissionAdmin)
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission("edit")
	require.NoError(t, err)
	assert.Equal(t, PermissionEdit, p)

	_, err = ParsePermission("superuser")
	assert.Error(t, err)
}

func TestPermissionJSONUsesNames(t *testing.T) {
	data, err := json.Marshal(Collaborator{Name: "참여자", Permission: PermissionComment})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"permission":"comment"`)

	var c Collaborator
	require.NoError(t, json.Unmarshal([]byte(`{"name":"참여자","permission":"admin"}`), &c))
	assert.Equal(t, PermissionAdmin, c.Permission)
}
