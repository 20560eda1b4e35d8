package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInDomain(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"sam@inst.edu", true},
		{"Sam@INST.edu", true},
		{"sam@sub.inst.edu", false},
		{"sam@inst.edu.evil.com", false},
		{"sam@gmail.com", false},
		{"sam@", false},
		{"inst.edu", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, InDomain(tt.email, "inst.edu"))
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Sam", CleanString("  Sam \n"))
	assert.Equal(t, "sam@inst.edu", CleanString(" Sam@Inst.edu ", true))
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type input struct {
		Name  string `json:"name" validate:"required,notblank"`
		Email string `json:"email" validate:"required,email"`
	}

	require.NoError(t, validate.Struct(input{Name: "Sam", Email: "sam@inst.edu"}))

	err := validate.Struct(input{Name: "   ", Email: "sam"})
	require.Error(t, err)
	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	msgs := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msgs[fe.Field()] = fe.Translate(translator)
	}
	assert.Equal(t, map[string]string{
		"name":  "this field cannot be blank",
		"email": "email must be a valid email address",
	}, msgs)

	err = validate.Struct(input{})
	require.Error(t, err)
	for _, fe := range err.(validator.ValidationErrors) {
		assert.Equal(t, "this field is required", fe.Translate(translator))
	}
}
