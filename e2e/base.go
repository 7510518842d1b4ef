package e2e

import (
	"context"
	"crm-realtime/auth"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.WsAddr == "" {
		s.T().Skip("E2E_WS_ADDR not set")
	}
}

func (s *BaseSuite) header(t *testing.T, name string) {
	h := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		h = color.New(color.BgBlack, color.FgGreen).Render(h)
	}
	t.Log(h)
}

// GrpcConn initializes a gRPC connection logging every unary call
func (s *BaseSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	s.header(t, name)
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)
			t.Logf("GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// Client is one WebSocket connection that logs its frames when E2E_DEBUG_JSON is set.
type Client struct {
	t     *testing.T
	conn  *websocket.Conn
	debug bool
}

// WsConn opens a connection on path, minting a token when JWT_SECRET is set
func (s *BaseSuite) WsConn(t *testing.T, name, path string) *Client {
	s.header(t, name)
	u := url.URL{Scheme: "ws", Host: s.Config.WsAddr, Path: path}
	header := http.Header{}
	if s.Config.JwtSecret != "" {
		userID := strconv.FormatInt(s.Config.MemberID, 10)
		token, err := auth.NewSigner(s.Config.JwtSecret).GenerateToken(userID, time.Minute)
		s.Require().NoError(err)
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	s.Require().NoError(err, "Failed to connect to "+u.String())
	t.Cleanup(func() { _ = conn.Close() })
	return &Client{t: t, conn: conn, debug: s.Config.DebugJSON}
}

func (c *Client) Send(frame string) error {
	if c.debug {
		c.t.Log("SEND: " + frame)
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

// Expect reads frames until one contains every fragment or the deadline passes.
func (c *Client) Expect(timeout time.Duration, fragments ...string) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		_ = c.conn.SetReadDeadline(deadline)
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		frame := string(data)
		if c.debug {
			c.t.Log("RECV: " + frame)
		}
		if containsAll(frame, fragments) {
			return frame, nil
		}
	}
}

func containsAll(s string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}
