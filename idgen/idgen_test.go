package idgen_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/seb7887/gofw/backoff/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID_DefaultsToULID(t *testing.T) {
	id := idgen.NewSessionID()
	_, err := ulid.ParseStrict(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, idgen.NewSessionID())
}

func TestUse(t *testing.T) {
	t.Cleanup(func() { idgen.Use(nil) })

	idgen.Use(idgen.UUID)
	_, err := uuid.Parse(idgen.NewSessionID())
	require.NoError(t, err)

	idgen.Use(func() string { return "fixed" })
	assert.Equal(t, "fixed", idgen.NewSessionID())

	idgen.Use(nil)
	_, err = ulid.ParseStrict(idgen.NewSessionID())
	require.NoError(t, err)
}
