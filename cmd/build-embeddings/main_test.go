package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecidedOn(t *testing.T) {
	parsed := parseDecidedOn("2021-05-10")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC), *parsed)

	assert.Nil(t, parseDecidedOn(""))
	assert.Nil(t, parseDecidedOn("2021.05.10"))
	assert.Nil(t, parseDecidedOn("선고일 미상"))
}
