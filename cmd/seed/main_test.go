package main

import (
	"crm-realtime/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUsers(t *testing.T) {
	req := require.New(t)

	users, err := parseUsers("1:alice, 2:bob,,")
	req.NoError(err)
	req.Equal([]domain.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, users)

	_, err = parseUsers("1")
	req.Error(err)
	_, err = parseUsers("x:alice")
	req.Error(err)
}

func TestParseIDs(t *testing.T) {
	req := require.New(t)

	ids, err := parseIDs("3, 1,2")
	req.NoError(err)
	req.Equal([]int64{3, 1, 2}, ids)

	ids, err = parseIDs("")
	req.NoError(err)
	req.Empty(ids)

	_, err = parseIDs("1,a")
	req.Error(err)
}
