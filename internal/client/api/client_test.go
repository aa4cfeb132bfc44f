package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func Test_Login_Decodes_User_And_Token(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/auth/login", r.URL.Path)
		req.Empty(r.Header.Get("Authorization"))
		var body map[string]string
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		req.Equal("ana@example.com", body["email"])
		_, _ = io.WriteString(w, `{"token":"jwt-1","user":{"id":"u1","name":"Ana","role":"accountant"}}`)
	})

	res, err := New(srv.URL).Login(context.Background(), "ana@example.com", "pw")

	req.NoError(err)
	req.Equal("jwt-1", res.Token)
	req.Equal("u1", res.User.ID)
	req.EqualValues("accountant", res.User.Role)
}

func Test_Bearer_Token_Is_Attached(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("Bearer jwt-1", r.Header.Get("Authorization"))
		req.Equal("/messages/org 1", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[{"id":"m1","text":"hola"}]}`)
	})
	c := New(srv.URL, WithTokenSource(func() string { return "jwt-1" }))

	msgs, err := c.Messages(context.Background(), "org 1")

	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal("hola", msgs[0].Text)
}

func Test_Server_Message_Is_Kept(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":"access forbidden"}`)
	})

	_, err := New(srv.URL).SendMessage(context.Background(), "org-2", "hi")

	var apiErr *Error
	req.True(errors.As(err, &apiErr))
	req.Equal(http.StatusForbidden, apiErr.Status)
	req.Equal("access forbidden", apiErr.ServerMessage)
}

func Test_Non_JSON_Error_Body(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := New(srv.URL).Me(context.Background())

	var apiErr *Error
	req.True(errors.As(err, &apiErr))
	req.Empty(apiErr.ServerMessage)
	req.Equal("api: 502 Bad Gateway", apiErr.Error())
}

func Test_Transport_Failure(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Me(context.Background())

	var apiErr *Error
	req.True(errors.As(err, &apiErr))
	req.Zero(apiErr.Status)
	req.Error(apiErr.Err)
}

func Test_Unauthorized_Hook(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"token revoked"}`)
	})

	calls := 0
	token := "jwt-1"
	c := New(srv.URL,
		WithTokenSource(func() string { return token }),
		WithUnauthorizedHandler(func() { calls++ }),
	)

	// Given an authenticated call rejected with 401, the hook fires
	_, err := c.Me(context.Background())
	req.True(IsUnauthorized(err))
	req.True(IsSessionExpired(err))
	req.Equal(1, calls)

	// And a 401 on an anonymous call (a bad login) does not
	token = ""
	_, err = c.Login(context.Background(), "a@example.com", "wrong")
	req.True(IsUnauthorized(err))
	req.False(IsSessionExpired(err))
	req.Equal(1, calls)
}

func Test_Upload_Is_Multipart(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		req.True(strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		req.NoError(r.ParseMultipartForm(1 << 20))
		req.Equal("Balance", r.FormValue("title"))
		req.Equal("org-1", r.FormValue("owner_id"))
		f, fh, err := r.FormFile("file")
		req.NoError(err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		req.Equal("balance.pdf", fh.Filename)
		req.Equal("%PDF-1.7", string(data))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"d1","content_type":"application/pdf","size":8}`)
	})

	doc, err := New(srv.URL).UploadDocument(context.Background(), Upload{
		Filename: "balance.pdf",
		Title:    "Balance",
		OwnerID:  "org-1",
		Content:  strings.NewReader("%PDF-1.7"),
	})

	req.NoError(err)
	req.Equal("d1", doc.ID)
	req.Equal(int64(8), doc.Size)
}

func Test_Logout_Accepts_No_Content(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal(http.MethodPost, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	req.NoError(New(srv.URL, WithTokenSource(func() string { return "t" })).Logout(context.Background()))
}

func Test_Users_Role_Filter(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("organization", r.URL.Query().Get("role"))
		_, _ = io.WriteString(w, `{"data":[{"id":"org-1","role":"organization"}]}`)
	})

	users, err := New(srv.URL).Users(context.Background(), "organization")

	req.NoError(err)
	req.Len(users, 1)
}
