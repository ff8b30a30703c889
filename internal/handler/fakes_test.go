package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/Agk8907/AI-chat-Application/internal/model"
	"github.com/Agk8907/AI-chat-Application/pkg/llm"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// 测试用的 service 桩实现，每个方法的行为由字段注入。

type fakeUserService struct {
	registerErr error
	loginToken  string
	loginUser   *model.User
	loginErr    error
	updateErr   error
	logoutErr   error
}

func (f *fakeUserService) Register(_ context.Context, username, _ string) (*model.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &model.User{ID: bson.NewObjectID(), Username: username}, nil
}

func (f *fakeUserService) Login(_ context.Context, _, _ string) (string, *model.User, error) {
	return f.loginToken, f.loginUser, f.loginErr
}

func (f *fakeUserService) UpdateProfile(_ context.Context, _ bson.ObjectID, _, _ string) error {
	return f.updateErr
}

func (f *fakeUserService) Logout(_ context.Context, _ string) error {
	return f.logoutErr
}

type fakeConvoService struct {
	listResult   []model.Conversation
	listErr      error
	createResult *model.Conversation
	createErr    error
	renameErr    error
	deleteErr    error
	history      []model.Message
	historyErr   error

	deletedID bson.ObjectID
	renamedTo string
}

func (f *fakeConvoService) List(_ context.Context, _ bson.ObjectID) ([]model.Conversation, error) {
	return f.listResult, f.listErr
}

func (f *fakeConvoService) Create(_ context.Context, _ bson.ObjectID) (*model.Conversation, error) {
	return f.createResult, f.createErr
}

func (f *fakeConvoService) Rename(_ context.Context, _, _ bson.ObjectID, title string) error {
	f.renamedTo = title
	return f.renameErr
}

func (f *fakeConvoService) Delete(_ context.Context, id, _ bson.ObjectID) error {
	f.deletedID = id
	return f.deleteErr
}

func (f *fakeConvoService) History(_ context.Context, _, _ bson.ObjectID) ([]model.Message, error) {
	return f.history, f.historyErr
}

type fakeChatService struct {
	prepareErr error
	chunks     []string
	streamErr  error

	preparedText string
}

func (f *fakeChatService) PrepareTurn(_ context.Context, _, _ bson.ObjectID, text string) error {
	f.preparedText = text
	return f.prepareErr
}

func (f *fakeChatService) StreamReply(_ context.Context, _, _ bson.ObjectID, _ string, out llm.ChunkWriter) error {
	if f.streamErr != nil {
		return f.streamErr
	}
	for _, c := range f.chunks {
		if err := out.WriteChunk([]byte(c)); err != nil {
			return err
		}
	}
	return nil
}

// stubAuth 代替真实的认证中间件，把固定的调用者身份放入 context。
func stubAuth(userID bson.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("token", "test-token")
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}
