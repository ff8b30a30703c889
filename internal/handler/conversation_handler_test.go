package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Agk8907/AI-chat-Application/internal/model"
	"github.com/Agk8907/AI-chat-Application/internal/repository"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newConvoTestRouter(svc *fakeConvoService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewConversationHandler(svc)
	auth := stubAuth(bson.NewObjectID())
	r := gin.New()
	r.GET("/api/conversations", auth, h.List)
	r.POST("/api/conversations", auth, h.Create)
	r.PUT("/api/conversations/:id", auth, h.Rename)
	r.DELETE("/api/conversations/:id", auth, h.Delete)
	return r
}

func TestListConversationsHandler(t *testing.T) {
	svc := &fakeConvoService{
		listResult: []model.Conversation{
			{ID: bson.NewObjectID(), Title: "Recent", UpdatedAt: time.Now()},
			{ID: bson.NewObjectID(), Title: "Older", UpdatedAt: time.Now().Add(-time.Hour)},
		},
	}
	r := newConvoTestRouter(svc)

	w := doRequest(r, http.MethodGet, "/api/conversations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("conversations = %d, want 2", len(resp))
	}
	if resp[0]["title"] != "Recent" {
		t.Errorf("first title = %v, want %q", resp[0]["title"], "Recent")
	}
}

func TestCreateConversationHandler(t *testing.T) {
	created := &model.Conversation{ID: bson.NewObjectID(), Title: model.DefaultTitle, UpdatedAt: time.Now()}
	r := newConvoTestRouter(&fakeConvoService{createResult: created})

	w := doRequest(r, http.MethodPost, "/api/conversations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["title"] != model.DefaultTitle {
		t.Errorf("title = %v, want %q", resp["title"], model.DefaultTitle)
	}
	if resp["_id"] != created.ID.Hex() {
		t.Errorf("_id = %v, want %q", resp["_id"], created.ID.Hex())
	}
}

func TestRenameConversationHandler(t *testing.T) {
	svc := &fakeConvoService{}
	r := newConvoTestRouter(svc)

	id := bson.NewObjectID().Hex()
	w := doRequest(r, http.MethodPut, "/api/conversations/"+id, `{"title":"Renamed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if svc.renamedTo != "Renamed" {
		t.Errorf("renamed to %q, want %q", svc.renamedTo, "Renamed")
	}
}

func TestRenameConversationHandlerMissingTitle(t *testing.T) {
	r := newConvoTestRouter(&fakeConvoService{})

	id := bson.NewObjectID().Hex()
	w := doRequest(r, http.MethodPut, "/api/conversations/"+id, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDeleteConversationHandler(t *testing.T) {
	svc := &fakeConvoService{}
	r := newConvoTestRouter(svc)

	id := bson.NewObjectID()
	w := doRequest(r, http.MethodDelete, "/api/conversations/"+id.Hex(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if svc.deletedID != id {
		t.Errorf("deleted ID = %s, want %s", svc.deletedID.Hex(), id.Hex())
	}
}

func TestDeleteConversationHandlerNotFound(t *testing.T) {
	r := newConvoTestRouter(&fakeConvoService{deleteErr: repository.ErrNotFound})

	w := doRequest(r, http.MethodDelete, "/api/conversations/"+bson.NewObjectID().Hex(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeleteConversationHandlerBadID(t *testing.T) {
	r := newConvoTestRouter(&fakeConvoService{})

	w := doRequest(r, http.MethodDelete, "/api/conversations/not-a-hex-id", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
