package docstore

import (
	"testing"

	stderrors "admissions-intake/internal/common/errors"

	"github.com/stretchr/testify/assert"
)

func TestFormsPath(t *testing.T) {
	p := FormsPath("campus-portal", "user-123")

	assert.Equal(t, "campus-portal", p.AppID)
	assert.Equal(t, "user-123", p.UserID)
	assert.Equal(t, "admissions_forms", p.Collection)
	assert.Equal(t, "apps/campus-portal/users/user-123/admissions_forms", p.String())
}

func TestCollectionPathValidate(t *testing.T) {
	// ==========================
	// Valid path
	// ==========================
	t.Run("valid path passes", func(t *testing.T) {
		p := FormsPath("campus-portal", "User_ABC-9")
		assert.NoError(t, p.Validate())
	})

	// ==========================
	// Invalid paths
	// ==========================
	t.Run("empty segment rejected", func(t *testing.T) {
		p := FormsPath("campus-portal", "")
		err := p.Validate()
		assert.Error(t, err)

		stdErr, ok := err.(*stderrors.StandardError)
		assert.True(t, ok)
		assert.Equal(t, stderrors.ErrCodeInvalidCollectionPath, stdErr.Code)
	})

	t.Run("slash in segment rejected", func(t *testing.T) {
		p := FormsPath("campus-portal", "user/../../other")
		err := p.Validate()
		assert.Error(t, err)
	})
}

func TestIndexName(t *testing.T) {
	p := FormsPath("Campus Portal", "User#42")
	name := indexName(p)

	assert.Equal(t, "apps.campus-portal.users.user-42.admissions_forms", name)
}
