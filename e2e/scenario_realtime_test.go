package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type testRealtimeSuite struct {
	BaseSuite
}

func TestRealtimeSuite(t *testing.T) {
	suite.Run(t, &testRealtimeSuite{})
}

func (s *testRealtimeSuite) TestHealth() {
	if s.Config.GrpcAddr == "" {
		s.T().Skip("E2E_GRPC_ADDR not set")
	}
	conn := s.GrpcConn(s.T(), "Health check", s.Config.GrpcAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	s.Require().NoError(err)
	s.Require().Equal(healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func (s *testRealtimeSuite) TestCommentLifecycle() {
	t := s.T()
	author := s.WsConn(t, "Author connection", "/ws/comments/")
	watcher := s.WsConn(t, "Watcher connection", "/ws/comments/")
	content := "e2e " + uuid.NewString()

	// --- STEP 1: CREATE ---
	var pk int64
	s.Run("Step 1: create is broadcast to every member", func() {
		frame := fmt.Sprintf(`{"action":"create","member_id":%d,"task_id":1,"content":%q}`, s.Config.MemberID, content)
		s.Require().NoError(author.Send(frame))

		_, err := watcher.Expect(5*time.Second, `"send_comment"`, content)
		s.Require().NoError(err)
		got, err := author.Expect(5*time.Second, `"send_comment"`, content)
		s.Require().NoError(err)
		pk = extractID(got)
		s.Require().NotZero(pk)
	})

	// --- STEP 2: FORBIDDEN UPDATE ---
	s.Run("Step 2: update by another member is refused to the caller", func() {
		frame := fmt.Sprintf(`{"action":"update","pk":%d,"member_id":%d,"content":"x"}`, pk, s.Config.MemberID+1000)
		s.Require().NoError(author.Send(frame))
		_, err := author.Expect(5*time.Second, `"error"`, "don't have permission")
		s.Require().NoError(err)
	})

	// --- STEP 3: DELETE ---
	s.Run("Step 3: delete is broadcast", func() {
		s.Require().NoError(author.Send(fmt.Sprintf(`{"action":"delete","pk":%d}`, pk)))
		_, err := watcher.Expect(5*time.Second, fmt.Sprintf("Comment %d deleted successfully.", pk))
		s.Require().NoError(err)
	})
}
