package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

// fakeClient implements client.Client for service unit tests. It behaves like
// a tiny in-memory backend unless an *Err field forces a failure.
type fakeClient struct {
	mu sync.Mutex

	LoginUser *models.User
	LoginErr  error
	SignupMsg string
	SignupErr error
	LogoutErr error
	CurUser   *models.User
	CurErr    error
	ListErr   error
	CreateErr error
	RenameErr error
	DeleteErr error
	SendErr   error

	Convs  []models.Conversation
	nextID int64

	Calls          map[string]int
	LastLogoutUser int64

	onUnauthorized func()
}

func newFakeClient() *fakeClient {
	return &fakeClient{Calls: map[string]int{}, nextID: 100}
}

func (f *fakeClient) call(name string) {
	f.mu.Lock()
	f.Calls[name]++
	f.mu.Unlock()
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[name]
}

func (f *fakeClient) Close() error                   { return nil }
func (f *fakeClient) Ping(ctx context.Context) error { f.call("Ping"); return nil }

func (f *fakeClient) Signup(ctx context.Context, username string, password []byte) (string, error) {
	f.call("Signup")
	return f.SignupMsg, f.SignupErr
}

func (f *fakeClient) Login(ctx context.Context, username string, password []byte) (*models.User, error) {
	f.call("Login")
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.LoginUser, nil
}

func (f *fakeClient) Logout(ctx context.Context, userID int64) (string, error) {
	f.call("Logout")
	f.LastLogoutUser = userID
	return "Logged out successfully", f.LogoutErr
}

func (f *fakeClient) CurrentUser(ctx context.Context) (*models.User, error) {
	f.call("CurrentUser")
	if f.CurErr != nil {
		return nil, f.CurErr
	}
	return f.CurUser, nil
}

func (f *fakeClient) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	f.call("ListConversations")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]models.Conversation, len(f.Convs))
	for i, c := range f.Convs {
		out[i] = c.Clone()
	}
	return out, nil
}

func (f *fakeClient) CreateConversation(ctx context.Context, name string) (*models.Conversation, error) {
	f.call("CreateConversation")
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.nextID++
	c := models.Conversation{ID: f.nextID, Name: name, Messages: []models.Message{}}
	f.Convs = append([]models.Conversation{c}, f.Convs...)
	return &c, nil
}

func (f *fakeClient) RenameConversation(ctx context.Context, id int64, name string) (*models.Conversation, error) {
	f.call("RenameConversation")
	if f.RenameErr != nil {
		return nil, f.RenameErr
	}
	for i := range f.Convs {
		if f.Convs[i].ID == id {
			f.Convs[i].Name = name
			c := f.Convs[i].Clone()
			return &c, nil
		}
	}
	return nil, &client.APIError{Status: 404, Message: "Conversation not found"}
}

func (f *fakeClient) DeleteConversation(ctx context.Context, id int64) error {
	f.call("DeleteConversation")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i := range f.Convs {
		if f.Convs[i].ID == id {
			f.Convs = append(f.Convs[:i], f.Convs[i+1:]...)
			return nil
		}
	}
	return &client.APIError{Status: 404, Message: "Conversation not found"}
}

func (f *fakeClient) SendMessage(ctx context.Context, conversationID int64, text string) ([]models.Message, error) {
	f.call("SendMessage")
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.nextID += 2
	return []models.Message{
		{ID: f.nextID - 1, Sender: models.SenderUser, Text: text},
		{ID: f.nextID, Sender: models.SenderBot, Text: client.EchoReply(text)},
	}, nil
}

func (f *fakeClient) SetUnauthorizedHandler(fn func()) { f.onUnauthorized = fn }

var _ client.Client = (*fakeClient)(nil)
