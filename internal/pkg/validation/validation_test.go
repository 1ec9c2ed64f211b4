package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HadesClient/hades-web/internal/pkg/apperror"
)

type sample struct {
	Username string `validate:"min=3,max=20,username"`
	Note     string `validate:"max=5"`
}

func TestStruct(t *testing.T) {
	msgs := Messages{"Username": "bad username"}

	assert.NoError(t, Struct(sample{Username: "good_name-1"}, msgs))

	err := Struct(sample{Username: "bad space"}, msgs)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, "bad username", apperror.PublicMessage(err))

	err = Struct(sample{Username: "fine", Note: "toolong"}, msgs)
	assert.Equal(t, "Invalid Note", apperror.PublicMessage(err))
}

func TestIsUsername(t *testing.T) {
	assert.True(t, IsUsername("Hades_Fan-99"))
	assert.False(t, IsUsername("no spaces"))
	assert.False(t, IsUsername("ümlaut"))
	assert.False(t, IsUsername(""))
}
