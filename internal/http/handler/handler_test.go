package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"userdir/internal/dto"
	"userdir/internal/model"
	"userdir/internal/repository"
	"userdir/internal/service"
	serviceMocks "userdir/internal/service/mocks"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListUsers(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Get("/users", ListUsers(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.UserListResult{
			Items: []dto.UserProfile{{Username: "ann", Email: "ann@x.com"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.UserListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("store unavailable", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, repository.ErrUnavailable).Once()

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreateUser(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Post("/users", CreateUser(mockSvc))

	postJSON := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("created", func(t *testing.T) {
		stored := &model.User{ID: uuid.NewString(), Username: "ann", Email: "ann@x.com"}
		mockSvc.On("Register", mock.Anything, dto.CreateUser{Username: "ann", Email: "ann@x.com"}).
			Return(stored, nil).Once()

		resp := postJSON(`{"username":"ann","email":"ann@x.com"}`)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var out model.User
		json.NewDecoder(resp.Body).Decode(&out)
		assert.Equal(t, stored.ID, out.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("conflict", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, mock.Anything).
			Return(nil, repository.ErrConflict).Once()

		resp := postJSON(`{"username":"ann","email":"ann@x.com"}`)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "CONFLICT", body.Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := postJSON(`{"username":`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetUser(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Get("/users/:id", GetUser(mockSvc))

	id := uuid.NewString()

	t.Run("found returns profile without id", func(t *testing.T) {
		mockSvc.On("Profile", mock.Anything, id).
			Return(dto.UserProfile{Username: "ann", Email: "ann@x.com"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "ann", body["username"])
		assert.NotContains(t, body, "id")
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Profile", mock.Anything, id).
			Return(dto.UserProfile{}, repository.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdateUser(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Patch("/users/:id", UpdateUser(mockSvc))

	id := uuid.NewString()
	name := "Ann A."

	t.Run("updated", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, id, dto.UpdateUser{DisplayName: &name}).
			Return(&model.User{ID: id, Username: "ann", Email: "ann@x.com", DisplayName: name}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/users/"+id, strings.NewReader(`{"display_name":"Ann A."}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown id", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, id, mock.Anything).
			Return(nil, repository.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPatch, "/users/"+id, strings.NewReader(`{"display_name":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteUser(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Delete("/users/:id", DeleteUser(mockSvc))

	id := uuid.NewString()

	t.Run("deleted", func(t *testing.T) {
		mockSvc.On("Remove", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/users/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Remove", mock.Anything, id).Return(repository.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/users/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestUploadAvatar(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Put("/users/:id/avatar", UploadAvatar(mockSvc))

	id := uuid.NewString()

	t.Run("uploaded", func(t *testing.T) {
		mockSvc.On("SetAvatar", mock.Anything, id, mock.Anything, "me.png", mock.Anything, mock.Anything).
			Return(&model.User{ID: id, AvatarPath: "avatars/key.png"}, nil).Once()

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile("file", "me.png")
		require.NoError(t, err)
		fw.Write([]byte("png-bytes"))
		w.Close()

		req := httptest.NewRequest(http.MethodPut, "/users/"+id+"/avatar", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/users/"+id+"/avatar", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FILE_REQUIRED", body.Error.Code)
	})
}

func TestGetAvatarURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Get("/users/:id/avatar", GetAvatarURL(mockSvc))

	id := uuid.NewString()

	t.Run("presigned url returned", func(t *testing.T) {
		mockSvc.On("AvatarURL", mock.Anything, id, avatarURLExpiry).
			Return("https://store.example/avatars/a.png?sig=x", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/"+id+"/avatar", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Contains(t, body["url"], "avatars/a.png")
	})

	t.Run("no avatar", func(t *testing.T) {
		mockSvc.On("AvatarURL", mock.Anything, id, avatarURLExpiry).
			Return("", repository.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/"+id+"/avatar", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
