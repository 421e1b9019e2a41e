package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
)

type state string

func (s state) String() string { return string(s) }

func TestErrorsAs(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		err    error
		target func(error) bool
		msg    string
	}{
		{
			name: "Validation",
			err:  apperr.Validation("email", "is required"),
			target: func(err error) bool {
				var v *apperr.ValidationError
				return errors.As(err, &v) && v.Field == "email"
			},
			msg: "email: is required",
		},
		{
			name: "NotFound",
			err:  apperr.NotFound("candidate", id),
			target: func(err error) bool {
				var v *apperr.NotFoundError
				return errors.As(err, &v) && v.ID == id
			},
			msg: fmt.Sprintf("candidate %s not found", id),
		},
		{
			name: "InvalidTransition",
			err:  apperr.InvalidTransition("report", id, "approve", state("DRAFT")),
			target: func(err error) bool {
				var v *apperr.InvalidStateTransitionError
				return errors.As(err, &v) && v.From == "DRAFT"
			},
			msg: fmt.Sprintf("report %s: cannot approve from DRAFT", id),
		},
		{
			name: "Conflict",
			err:  apperr.Conflict("candidate", id),
			target: func(err error) bool {
				var v *apperr.ConcurrencyConflictError
				return errors.As(err, &v)
			},
			msg: fmt.Sprintf("candidate %s was modified concurrently", id),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("wrapped: %w", tt.err)

			assert.True(t, tt.target(wrapped))
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}
