package service

import (
	"context"
	"sort"
	"time"

	"github.com/Agk8907/AI-chat-Application/internal/model"
	"github.com/Agk8907/AI-chat-Application/internal/repository"
	"github.com/Agk8907/AI-chat-Application/pkg/llm"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// 内存版 repository 实现，行为对齐 MongoDB 实现的语义，供单元测试使用。

type fakeUserRepo struct {
	users map[bson.ObjectID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[bson.ObjectID]*model.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateKey
		}
	}
	user.ID = bson.NewObjectID()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id bson.ObjectID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateFields(_ context.Context, id bson.ObjectID, updates bson.M) error {
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	if v, ok := updates["username"]; ok {
		name := v.(string)
		for otherID, other := range r.users {
			if otherID != id && other.Username == name {
				return repository.ErrDuplicateKey
			}
		}
		u.Username = name
	}
	if v, ok := updates["password"]; ok {
		u.Password = v.(string)
	}
	return nil
}

type fakeConvoRepo struct {
	convos map[bson.ObjectID]*model.Conversation
}

func newFakeConvoRepo() *fakeConvoRepo {
	return &fakeConvoRepo{convos: map[bson.ObjectID]*model.Conversation{}}
}

func (r *fakeConvoRepo) Create(_ context.Context, convo *model.Conversation) error {
	convo.ID = bson.NewObjectID()
	cp := *convo
	r.convos[convo.ID] = &cp
	return nil
}

func (r *fakeConvoRepo) FindByUser(_ context.Context, userID bson.ObjectID) ([]model.Conversation, error) {
	result := []model.Conversation{}
	for _, c := range r.convos {
		if c.UserID == userID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (r *fakeConvoRepo) FindByIDAndUser(_ context.Context, id, userID bson.ObjectID) (*model.Conversation, error) {
	c, ok := r.convos[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConvoRepo) UpdateTitle(_ context.Context, id, userID bson.ObjectID, title string) error {
	c, ok := r.convos[id]
	if !ok || c.UserID != userID {
		// 对齐 MongoDB 实现：没有匹配文档时静默不生效
		return nil
	}
	c.Title = title
	return nil
}

func (r *fakeConvoRepo) Touch(_ context.Context, id bson.ObjectID, at time.Time) error {
	if c, ok := r.convos[id]; ok {
		c.UpdatedAt = at
	}
	return nil
}

func (r *fakeConvoRepo) Delete(_ context.Context, id bson.ObjectID) error {
	delete(r.convos, id)
	return nil
}

type fakeMsgRepo struct {
	msgs []*model.Message
}

func newFakeMsgRepo() *fakeMsgRepo {
	return &fakeMsgRepo{}
}

func (r *fakeMsgRepo) Create(_ context.Context, msg *model.Message) error {
	msg.ID = bson.NewObjectID()
	cp := *msg
	r.msgs = append(r.msgs, &cp)
	return nil
}

func (r *fakeMsgRepo) FindByConversation(_ context.Context, conversationID, userID bson.ObjectID) ([]model.Message, error) {
	result := []model.Message{}
	for _, m := range r.msgs {
		if m.ConversationID == conversationID && m.UserID == userID {
			result = append(result, *m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (r *fakeMsgRepo) DeleteByConversation(_ context.Context, conversationID bson.ObjectID) error {
	kept := r.msgs[:0]
	for _, m := range r.msgs {
		if m.ConversationID != conversationID {
			kept = append(kept, m)
		}
	}
	r.msgs = kept
	return nil
}

func (r *fakeMsgRepo) CountOrphans(_ context.Context, userID bson.ObjectID) (int64, error) {
	var count int64
	for _, m := range r.msgs {
		if m.UserID == userID && m.ConversationID.IsZero() {
			count++
		}
	}
	return count, nil
}

func (r *fakeMsgRepo) AdoptOrphans(_ context.Context, userID, conversationID bson.ObjectID) error {
	for _, m := range r.msgs {
		if m.UserID == userID && m.ConversationID.IsZero() {
			m.ConversationID = conversationID
		}
	}
	return nil
}

// fakeLLMClient 按固定片段序列回放一次流式响应。
type fakeLLMClient struct {
	chunks []string
	err    error
}

func (f *fakeLLMClient) StreamGenerateContent(_ context.Context, _ string, writer llm.ChunkWriter) error {
	if f.err != nil {
		return f.err
	}
	for _, c := range f.chunks {
		if err := writer.WriteChunk([]byte(c)); err != nil {
			return err
		}
	}
	return nil
}

// collectWriter 按序记录收到的片段。
type collectWriter struct {
	chunks []string
}

func (w *collectWriter) WriteChunk(data []byte) error {
	w.chunks = append(w.chunks, string(data))
	return nil
}
