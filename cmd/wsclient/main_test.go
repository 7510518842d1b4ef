package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrinter_PlainOutput(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	p := printer{colours: false, out: &buf}

	p.info("connected")
	p.frame([]byte(`{"type":"error","message":"boom"}`))

	req.Equal("connected\n{\"type\":\"error\",\"message\":\"boom\"}\n", buf.String())
}

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("WSCLIENT_USER_ID", "42")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal("42", cfg.UserID)
	req.True(cfg.Colours)
}
