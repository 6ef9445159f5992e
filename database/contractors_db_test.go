package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateContractor(t *testing.T) {
	db := newTestDB(t)

	created, err := GetOrCreateContractor(db.Conn(), `ООО "Ромашка"`, "7701234567")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Ромашка ООО", created.Name)
	assert.Equal(t, "7701234567", created.INN)
	assert.NotZero(t, created.ID)

	// другое сырое написание того же названия находит существующую запись
	found, err := GetOrCreateContractor(db.Conn(), "ООО Ромашка", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	contractors, err := db.ListContractors()
	require.NoError(t, err)
	assert.Len(t, contractors, 1)
}

// ИНН существующего контрагента не перезаписывается при повторном импорте
func TestGetOrCreateContractorKeepsINN(t *testing.T) {
	db := newTestDB(t)

	created, err := GetOrCreateContractor(db.Conn(), "ООО Вектор", "7701234567")
	require.NoError(t, err)

	again, err := GetOrCreateContractor(db.Conn(), "ООО Вектор", "9999999999")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "7701234567", again.INN)
}

func TestUpdateContractorINN(t *testing.T) {
	db := newTestDB(t)

	created, err := GetOrCreateContractor(db.Conn(), "ООО Вектор", "")
	require.NoError(t, err)

	found, err := db.UpdateContractorINN(created.ID, "7707083893")
	require.NoError(t, err)
	assert.True(t, found)

	stored, err := db.GetContractor(created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "7707083893", stored.INN)

	found, err = db.UpdateContractorINN(99999, "123")
	require.NoError(t, err)
	assert.False(t, found)
}
