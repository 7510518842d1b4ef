package services

import (
	crmerrors "crm-realtime/errors"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidator_Registers_Custom_Tags(t *testing.T) {
	req := require.New(t)

	// Given a fresh validator
	var err error
	req.NotPanics(func() {
		v := newValidator()

		// Then structs using the custom tags are validated instead of panicking
		type sample struct {
			Name    string          `json:"name" validate:"notblank"`
			Payload json.RawMessage `json:"payload" validate:"notnull"`
		}
		err = v.Struct(sample{Name: "  ", Payload: json.RawMessage("null")})
	})
	req.Error(err)
}

func TestBind_Reports_Custom_Tag_Messages(t *testing.T) {
	req := require.New(t)

	// When content is blank and a chat message body is null
	_, err := bind[createCommentRequest]([]byte(`{"member_id":1,"task_id":2,"content":"   "}`))
	var verr *crmerrors.ValidationError
	req.ErrorAs(err, &verr)
	req.Equal([]string{msgBlank}, verr.Fields["content"])

	_, err = bind[notificationRequest]([]byte(`{"user_id":1,"content":null}`))
	req.ErrorAs(err, &verr)
	req.Equal([]string{msgNull}, verr.Fields["content"])
}
